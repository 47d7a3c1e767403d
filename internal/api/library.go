package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/shapedtime/tvscraper/internal/library"
)

// CreatedResponse is returned by every create endpoint.
type CreatedResponse struct {
	ID string `json:"id"`
}

// StatusResponse describes the library content.
type StatusResponse struct {
	Status string         `json:"status"`
	Nodes  map[string]int `json:"nodes"`
}

// bindAttrs reads a flat JSON object of attribute names to string values.
func bindAttrs(c *gin.Context) (library.Attrs, bool) {
	attrs := library.Attrs{}
	if c.Request.ContentLength == 0 {
		return attrs, true
	}
	if err := c.ShouldBindJSON(&attrs); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return attrs, true
}

func addShowScraper(s *library.Store, showID string, attrs library.Attrs) (string, error) {
	return s.AddScraper(library.ShowParent(showID), attrs)
}

func addSeasonScraper(s *library.Store, seasonID string, attrs library.Attrs) (string, error) {
	return s.AddScraper(library.SeasonParent(seasonID), attrs)
}

// Generic handlers

func (s *Server) get(fn func(*library.Store, string) (library.Attrs, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		attrs, err := fn(s.lib.Store(), c.Param("id"))
		if err != nil {
			storeError(c, err)
			return
		}
		c.JSON(http.StatusOK, attrs)
	}
}

func (s *Server) list(fn func(*library.Store, string) ([]library.Attrs, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := fn(s.lib.Store(), c.Param("id"))
		if err != nil {
			storeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func (s *Server) listAll(fn func(*library.Store) ([]library.Attrs, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := fn(s.lib.Store())
		if err != nil {
			storeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func (s *Server) add(fn func(*library.Store, string, library.Attrs) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		attrs, ok := bindAttrs(c)
		if !ok {
			return
		}

		var id string
		err := s.lib.Update(c.Request.Context(), func(st *library.Store) error {
			var err error
			id, err = fn(st, c.Param("id"), attrs)
			return err
		})
		if err != nil {
			storeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreatedResponse{ID: id})
	}
}

func (s *Server) set(fn func(*library.Store, string, library.Attrs) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		attrs, ok := bindAttrs(c)
		if !ok {
			return
		}

		err := s.lib.Update(c.Request.Context(), func(st *library.Store) error {
			return fn(st, c.Param("id"), attrs)
		})
		if err != nil {
			storeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) remove(fn func(*library.Store, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.lib.Update(c.Request.Context(), func(st *library.Store) error {
			return fn(st, c.Param("id"))
		})
		if err != nil {
			storeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// Show handlers

// listShows returns every show. With ?q= only shows whose title fuzzily
// matches are returned, best match first.
func (s *Server) listShows(c *gin.Context) {
	shows, err := s.lib.Store().ListShows()
	if err != nil {
		storeError(c, err)
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, shows)
		return
	}

	titles := make([]string, len(shows))
	for i, show := range shows {
		titles[i] = show["title"]
	}

	matches := fuzzy.RankFindFold(query, titles)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	response := make([]library.Attrs, 0, len(matches))
	for _, m := range matches {
		response = append(response, shows[m.OriginalIndex])
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) createShow(c *gin.Context) {
	attrs, ok := bindAttrs(c)
	if !ok {
		return
	}

	var id string
	err := s.lib.Update(c.Request.Context(), func(st *library.Store) error {
		var err error
		id, err = st.AddShow(attrs)
		return err
	})
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{ID: id})
}

func (s *Server) getEpisodeByIndex(c *gin.Context) {
	episode, err := s.lib.Store().EpisodeByIndex(c.Param("id"), c.Param("n"), c.Param("e"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, episode)
}

// Resolution handlers

func (s *Server) bestFileForEpisode(c *gin.Context) {
	file, err := s.lib.BestFileForEpisode(c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	if file == nil {
		errorResponse(c, http.StatusNotFound, "no eligible file yet")
		return
	}
	c.JSON(http.StatusOK, file)
}

func (s *Server) bestFilesForSeason(c *gin.Context) {
	files, err := s.lib.BestFilesForSeason(c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Scraped season handlers

// listScrapedSeasons returns the scraped seasons flagged for notification.
// ?scraper=<id>&uri=<uri> looks one up by URI instead.
func (s *Server) listScrapedSeasons(c *gin.Context) {
	scraperID, uri := c.Query("scraper"), c.Query("uri")
	if scraperID == "" && uri == "" {
		items, err := s.lib.Store().ScrapedSeasonsToNotify()
		if err != nil {
			storeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
		return
	}

	found, err := s.lib.Store().ScrapedSeasonByURI(scraperID, uri)
	if err != nil {
		storeError(c, err)
		return
	}
	items := []library.Attrs{}
	if found != nil {
		items = append(items, found)
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) promoteScrapedSeason(c *gin.Context) {
	id, err := s.lib.PromoteScrapedSeason(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{ID: id})
}

// Status

func (s *Server) getStatus(c *gin.Context) {
	nodes := make(map[string]int)
	for kind, n := range s.lib.Store().Stats() {
		nodes[string(kind)] = n
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "ok", Nodes: nodes})
}
