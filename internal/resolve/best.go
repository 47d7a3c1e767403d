package resolve

import (
	"fmt"
	"time"

	"github.com/shapedtime/tvscraper/internal/library"
)

// BestFileForEpisode returns the attributes of the best file for an episode,
// or nil when no file is eligible yet.
//
// Scrapers are consulted by ascending preference. Once a file has been found,
// a scraper with a worse preference than the previous one stops the search.
// Among the files a scraper reports, the earliest published wins, and a file
// only replaces the current best when it is strictly older.
func (e *Engine) BestFileForEpisode(episodeID string) (library.Attrs, error) {
	start := time.Now()
	e.log.Debug("checking best file for episode", "episode", episodeID)

	episode, err := e.store.GetEpisode(episodeID)
	if err != nil {
		return nil, err
	}
	scrapers, err := e.scrapers(episode["season"])
	if err != nil {
		return nil, err
	}

	var best library.Attrs
	var lastPref int64
	var hasLastPref bool

	for _, sc := range scrapers {
		e.log.Debug("checking files for scraper", "scraper", sc.id)

		if sc.hasPref {
			if hasLastPref && lastPref < sc.pref && best != nil {
				e.log.Debug("file already found and scraper preference lower, stopping", "scraper", sc.id)
				break
			}
			lastPref, hasLastPref = sc.pref, true
		}

		files, err := e.store.FindFiles(library.FileQuery{
			Episode:     episodeID,
			Scraper:     sc.id,
			PublishedBy: sc.cutoff,
		})
		if err != nil {
			return nil, fmt.Errorf("find files for episode %s: %w", episodeID, err)
		}

		for _, f := range files {
			if !e.eligible(f) {
				continue
			}
			if best == nil || earlier(f, best) {
				best = f
				e.log.Debug("found elder file", "file", f["id"])
			} else {
				e.log.Debug("found more recent file", "file", f["id"], "best", best["id"])
			}
		}
	}

	winners := 0
	if best != nil {
		winners = 1
	}
	e.done("episode", winners, start)
	return best, nil
}

// BestFilesForSeason returns the best file of every episode of a season that
// has an eligible file. The ranking rules of BestFileForEpisode apply per
// episode. Afterwards, the latest file published by the scraper that provided
// an episode's winner replaces it, whatever its age or type: that is the same
// source republishing a corrected release.
func (e *Engine) BestFilesForSeason(seasonID string) ([]library.Attrs, error) {
	start := time.Now()
	e.log.Debug("checking best files for season", "season", seasonID)

	if _, err := e.store.GetSeason(seasonID); err != nil {
		return nil, err
	}
	scrapers, err := e.scrapers(seasonID)
	if err != nil {
		return nil, err
	}

	best := make(map[string]library.Attrs)
	lastPref := make(map[string]int64)
	var order []string

	for _, sc := range scrapers {
		e.log.Debug("checking files for scraper", "scraper", sc.id)

		files, err := e.store.FindFiles(library.FileQuery{
			Season:      seasonID,
			Scraper:     sc.id,
			PublishedBy: sc.cutoff,
		})
		if err != nil {
			return nil, fmt.Errorf("find files for season %s: %w", seasonID, err)
		}

		for _, f := range files {
			if !e.eligibleTyped(f) {
				continue
			}
			episodeID := f["episode"]

			if sc.hasPref {
				if prev, ok := lastPref[episodeID]; ok && prev < sc.pref && best[episodeID] != nil {
					e.log.Debug("file already found for episode and scraper preference lower",
						"episode", episodeID, "scraper", sc.id)
					continue
				}
				lastPref[episodeID] = sc.pref
			}

			current, ok := best[episodeID]
			if !ok {
				order = append(order, episodeID)
			}
			if !ok || earlier(f, current) {
				best[episodeID] = f
				e.log.Debug("found elder file", "file", f["id"], "episode", episodeID)
			} else {
				e.log.Debug("found more recent file", "file", f["id"], "episode", episodeID)
			}
		}
	}

	res := make([]library.Attrs, 0, len(order))
	for _, episodeID := range order {
		winner, err := e.latestFromSameScraper(best[episodeID])
		if err != nil {
			return nil, err
		}
		res = append(res, winner)
	}

	e.done("season", len(res), start)
	return res, nil
}

// latestFromSameScraper returns the most recently published file for the
// same episode and scraper as b, or b itself when there is none. Neither the
// scraper delay nor the eligibility checks apply here.
func (e *Engine) latestFromSameScraper(b library.Attrs) (library.Attrs, error) {
	files, err := e.store.FindFiles(library.FileQuery{
		Episode: b["episode"],
		Scraper: b["scraper"],
	})
	if err != nil {
		return nil, fmt.Errorf("find files for episode %s: %w", b["episode"], err)
	}

	winner := b
	for _, f := range files {
		if later(f, winner) {
			e.log.Debug("found newer file from the same scraper, swapping files",
				"file", f["id"], "previous", winner["id"])
			winner = f
		}
	}
	return winner, nil
}
