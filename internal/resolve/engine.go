// Package resolve picks the best file for an episode, or for every episode of
// a season, among the files reported by the season's scrapers.
package resolve

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/link"
)

// Store is the part of the library the engine reads from.
type Store interface {
	GetEpisode(id string) (library.Attrs, error)
	GetSeason(id string) (library.Attrs, error)
	SeasonScrapers(seasonID string) ([]library.Attrs, error)
	FindFiles(q library.FileQuery) ([]library.Attrs, error)
}

// Compile-time verification that library.Store implements Store
var _ Store = (*library.Store)(nil)

// Recorder receives resolution statistics. It may be nil.
type Recorder interface {
	ResolutionDone(scope string, winners int, elapsed time.Duration)
	CandidateSkipped(reason string)
}

// Skip reasons reported to the Recorder.
const (
	SkipInvalid  = "invalid"
	SkipSubtitle = "subtitle"
)

// Engine runs the best-file algorithms.
type Engine struct {
	store    Store
	decoder  link.Decoder
	now      func() time.Time
	log      *slog.Logger
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithDecoder replaces the URI decoder.
func WithDecoder(d link.Decoder) Option { return func(e *Engine) { e.decoder = d } }

// WithClock sets the time source used for scraper delays.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLogger sets the diagnostics sink. A nil logger discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder registers a statistics recorder.
func WithRecorder(r Recorder) Option { return func(e *Engine) { e.recorder = r } }

// NewEngine creates an engine reading from store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		decoder: link.Default,
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// scraper is a season scraper with its parsed ranking fields.
type scraper struct {
	id      string
	pref    int64
	hasPref bool
	cutoff  *int64
}

// scrapers loads the scrapers of a season sorted by ascending preference.
// Scrapers without a preference come last, in enumeration order.
func (e *Engine) scrapers(seasonID string) ([]scraper, error) {
	attrs, err := e.store.SeasonScrapers(seasonID)
	if err != nil {
		return nil, fmt.Errorf("load scrapers for season %s: %w", seasonID, err)
	}

	now := e.now().Unix()
	out := make([]scraper, 0, len(attrs))
	for _, a := range attrs {
		sc := scraper{id: a["id"]}
		if raw, present := a["preference"]; present {
			sc.pref, sc.hasPref = a.Int("preference")
			if !sc.hasPref {
				e.log.Warn("ignoring invalid scraper preference", "scraper", sc.id, "preference", raw)
			}
		}
		if raw, present := a["delay"]; present {
			if delay, ok := a.Int("delay"); ok {
				cutoff := now - delay
				sc.cutoff = &cutoff
			} else {
				e.log.Warn("ignoring invalid scraper delay", "scraper", sc.id, "delay", raw)
			}
		}
		out = append(out, sc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.hasPref && b.hasPref:
			return a.pref < b.pref
		case a.hasPref:
			return true
		default:
			return false
		}
	})
	return out, nil
}

// eligible decodes the file URI and rejects malformed links and subtitles.
func (e *Engine) eligible(f library.Attrs) bool {
	l, err := e.decoder.Decode(f["uri"])
	if err != nil {
		e.log.Debug("invalid file", "file", f["id"], "error", err)
		e.skipped(SkipInvalid)
		return false
	}
	if l.IsSubtitle() {
		e.log.Debug("file is a subtitle, skipping", "file", f["id"])
		e.skipped(SkipSubtitle)
		return false
	}
	return true
}

// eligibleTyped only decodes files of the ed2k type; other types are always
// eligible.
func (e *Engine) eligibleTyped(f library.Attrs) bool {
	if t := f["type"]; t != "" && t != library.FileTypeED2K {
		return true
	}
	return e.eligible(f)
}

func (e *Engine) skipped(reason string) {
	if e.recorder != nil {
		e.recorder.CandidateSkipped(reason)
	}
}

func (e *Engine) done(scope string, winners int, start time.Time) {
	if e.recorder != nil {
		e.recorder.ResolutionDone(scope, winners, time.Since(start))
	}
}

// earlier reports whether a was published strictly before b. Files without a
// numeric pubDate never compare as earlier.
func earlier(a, b library.Attrs) bool {
	pa, okA := a.Int("pubDate")
	pb, okB := b.Int("pubDate")
	return okA && okB && pa < pb
}

// later reports whether a was published strictly after b.
func later(a, b library.Attrs) bool {
	return earlier(b, a)
}
