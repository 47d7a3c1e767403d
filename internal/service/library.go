package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/persist"
	"github.com/shapedtime/tvscraper/internal/resolve"
)

// Persister defines the document storage operations needed by Library.
type Persister interface {
	Load(ctx context.Context) (*library.Document, error)
	Save(ctx context.Context, doc *library.Document) error
}

// Compile-time verification
var _ Persister = (persist.Backend)(nil)

// Resolver defines the best-file operations.
type Resolver interface {
	BestFileForEpisode(episodeID string) (library.Attrs, error)
	BestFilesForSeason(seasonID string) ([]library.Attrs, error)
}

// Compile-time verification
var _ Resolver = (*resolve.Engine)(nil)

// ErrNoPersister is returned by Save when the library runs in memory only.
var ErrNoPersister = errors.New("no persistence backend configured")

// Library ties the store to its persistence backend and the resolution
// engine. Mutations made through Update are saved before Update returns.
type Library struct {
	store     *library.Store
	persister Persister // Optional
	resolver  Resolver

	mu  sync.Mutex // serializes mutate-then-save sequences
	log *slog.Logger
}

// New creates a Library. persister may be nil for an in-memory library.
func New(store *library.Store, persister Persister, resolver Resolver) *Library {
	return &Library{
		store:     store,
		persister: persister,
		resolver:  resolver,
		log:       slog.With("component", "library-service"),
	}
}

// Store exposes the underlying store for reads.
func (l *Library) Store() *library.Store { return l.store }

// Load replaces the store content with the persisted document.
func (l *Library) Load(ctx context.Context) error {
	if l.persister == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	if err := l.store.Restore(doc); err != nil {
		return fmt.Errorf("failed to restore library: %w", err)
	}

	l.log.Info("library loaded", "nodes", doc.Count())
	return nil
}

// Save writes the current store content.
func (l *Library) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx)
}

func (l *Library) save(ctx context.Context) error {
	if l.persister == nil {
		return ErrNoPersister
	}
	if err := l.persister.Save(ctx, l.store.Snapshot()); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

// Update runs fn against the store and saves the result. When fn fails
// nothing is saved. In-memory libraries skip the save.
func (l *Library) Update(ctx context.Context, fn func(s *library.Store) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := fn(l.store); err != nil {
		return err
	}
	if l.persister == nil {
		return nil
	}
	return l.save(ctx)
}

// BestFileForEpisode returns the best file of an episode, or nil.
func (l *Library) BestFileForEpisode(episodeID string) (library.Attrs, error) {
	return l.resolver.BestFileForEpisode(episodeID)
}

// BestFilesForSeason returns the best file of every episode of a season.
func (l *Library) BestFilesForSeason(seasonID string) ([]library.Attrs, error) {
	return l.resolver.BestFilesForSeason(seasonID)
}

// PromoteScrapedSeason turns a scraped season into a scraper on the matching
// season of the show, creating the season as watched when it does not exist
// yet. The scraped season is hidden afterwards. Returns the new scraper ID.
func (l *Library) PromoteScrapedSeason(ctx context.Context, id string) (string, error) {
	var scraperID string

	err := l.Update(ctx, func(s *library.Store) error {
		scraped, err := s.GetScrapedSeason(id)
		if err != nil {
			return fmt.Errorf("failed to load scraped season: %w", err)
		}

		parent, err := s.GetScraper(scraped["scraper"])
		if err != nil {
			return fmt.Errorf("failed to load scraper: %w", err)
		}
		showID := parent["tvshow"]

		season, err := s.SeasonByNumber(showID, scraped["n"])
		if err != nil {
			return err
		}

		var seasonID string
		if season == nil {
			l.log.Info("season does not exist yet, creating", "show", showID, "n", scraped["n"])
			seasonID, err = s.AddSeason(showID, library.Attrs{"n": scraped["n"], "status": library.StatusWatched})
			if err != nil {
				return fmt.Errorf("failed to create season: %w", err)
			}
		} else {
			seasonID = season["id"]
		}

		attrs := library.Attrs{"uri": scraped["uri"]}
		if source, ok := parent["source"]; ok {
			attrs["source"] = source
		}

		l.log.Info("adding new scraper to season", "season", seasonID, "scraped_season", id)
		scraperID, err = s.AddScraper(library.SeasonParent(seasonID), attrs)
		if err != nil {
			return fmt.Errorf("failed to create scraper: %w", err)
		}

		return s.UpdateScrapedSeason(id, library.ScrapedSeasonUpdate{Hide: library.Set("1")})
	})
	if err != nil {
		return "", err
	}
	return scraperID, nil
}
