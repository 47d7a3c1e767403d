package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shapedtime/tvscraper/internal/config"
	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/service"
)

// Server represents the REST API server
type Server struct {
	router *gin.Engine
	lib    *service.Library
	auth   config.AuthConfig
	log    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAuth protects every route with HTTP Basic Authentication when enabled.
func WithAuth(cfg config.AuthConfig) Option {
	return func(s *Server) { s.auth = cfg }
}

// NewServer creates a new API server
func NewServer(lib *service.Library, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		lib:    lib,
		log:    slog.With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(func(c *gin.Context) {
		c.Next()
		s.log.Info("API request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	})

	if s.auth.Enabled {
		s.router.Use(basicAuth(s.auth, s.log))
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Shows
	api.GET("/shows", s.listShows)
	api.POST("/shows", s.createShow)
	api.GET("/shows/:id", s.get((*library.Store).GetShow))
	api.PUT("/shows/:id", s.set((*library.Store).SetShow))
	api.DELETE("/shows/:id", s.remove((*library.Store).RemoveShow))
	api.GET("/shows/:id/seasons", s.list((*library.Store).ShowSeasons))
	api.POST("/shows/:id/seasons", s.add((*library.Store).AddSeason))
	api.GET("/shows/:id/scrapers", s.list((*library.Store).ShowScrapers))
	api.POST("/shows/:id/scrapers", s.add(addShowScraper))
	api.GET("/shows/:id/scraped-seasons", s.list((*library.Store).ScrapedSeasons))
	api.POST("/shows/:id/files", s.add((*library.Store).AddFile))
	api.GET("/shows/:id/seasons/:n/episodes/:e", s.getEpisodeByIndex)

	// Seasons
	api.GET("/seasons/:id", s.get((*library.Store).GetSeason))
	api.PUT("/seasons/:id", s.set((*library.Store).SetSeason))
	api.DELETE("/seasons/:id", s.remove((*library.Store).RemoveSeason))
	api.GET("/seasons/:id/episodes", s.list((*library.Store).SeasonEpisodes))
	api.POST("/seasons/:id/episodes", s.add((*library.Store).AddEpisode))
	api.GET("/seasons/:id/scrapers", s.list((*library.Store).SeasonScrapers))
	api.POST("/seasons/:id/scrapers", s.add(addSeasonScraper))
	api.GET("/seasons/:id/best-files", s.bestFilesForSeason)
	api.GET("/watched-seasons", s.listAll((*library.Store).WatchedSeasons))

	// Episodes
	api.GET("/episodes/:id", s.get((*library.Store).GetEpisode))
	api.PUT("/episodes/:id", s.set((*library.Store).SetEpisode))
	api.DELETE("/episodes/:id", s.remove((*library.Store).RemoveEpisode))
	api.GET("/episodes/:id/files", s.list((*library.Store).EpisodeFiles))
	api.GET("/episodes/:id/best-file", s.bestFileForEpisode)

	// Scrapers
	api.GET("/scrapers/:id", s.get((*library.Store).GetScraper))
	api.PUT("/scrapers/:id", s.set((*library.Store).SetScraper))
	api.DELETE("/scrapers/:id", s.remove((*library.Store).RemoveScraper))
	api.POST("/scrapers/:id/scraped-seasons", s.add((*library.Store).AddScrapedSeason))
	api.GET("/active-scrapers", s.listAll((*library.Store).ActiveScrapers))

	// Files
	api.GET("/files/:id", s.get((*library.Store).GetFile))
	api.PUT("/files/:id", s.set((*library.Store).SetFile))
	api.DELETE("/files/:id", s.remove((*library.Store).RemoveFile))

	// Scraped seasons
	api.GET("/scraped-seasons", s.listScrapedSeasons)
	api.GET("/scraped-seasons/:id", s.get((*library.Store).GetScrapedSeason))
	api.PUT("/scraped-seasons/:id", s.set((*library.Store).SetScrapedSeason))
	api.DELETE("/scraped-seasons/:id", s.remove((*library.Store).RemoveScrapedSeason))
	api.POST("/scraped-seasons/:id/promote", s.promoteScrapedSeason)

	// Status
	api.GET("/status", s.getStatus)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// storeError maps store errors to HTTP status codes.
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, library.ErrUnknownAttribute):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
