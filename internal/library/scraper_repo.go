package library

import "fmt"

func showScraperPath(id string) Path { return P(S(KindShow), S(KindScraper, Eq("id", id))) }

func seasonScraperPath(id string) Path {
	return P(S(KindShow), S(KindSeason), S(KindScraper, Eq("id", id)))
}

func scrapedSeasonPath(id string) Path {
	return P(S(KindShow), S(KindScraper), S(KindScrapedSeason, Eq("id", id)))
}

// findScraper matches a scraper at either level, show first.
func (s *Store) findScraper(id string) (*node, bool) {
	matches := append(s.findAll(showScraperPath(id)), s.findAll(seasonScraperPath(id))...)
	if len(matches) != 1 {
		return nil, false
	}
	return matches[0], true
}

// ResolveParent reports whether id names a season or a show, trying the
// season first.
func (s *Store) ResolveParent(id string) (ParentRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.findOne(seasonPath(id)); ok {
		return SeasonParent(id), nil
	}
	if _, ok := s.findOne(showPath(id)); ok {
		return ShowParent(id), nil
	}
	return ParentRef{}, fmt.Errorf("TV show or season %s: %w", id, ErrNotFound)
}

// Scraper operations

// AddScraper creates a scraper under a show or a season.
func (s *Store) AddScraper(parent ParentRef, attrs Attrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path Path
	switch parent.Kind {
	case KindShow:
		path = showPath(parent.ID)
	case KindSeason:
		path = seasonPath(parent.ID)
	default:
		err := fmt.Errorf("scraper parent kind %q: %w", parent.Kind, ErrNotFound)
		s.observe(KindScraper, "add", err)
		return "", err
	}

	id, err := s.create(KindScraper, path, attrs)
	s.observe(KindScraper, "add", err)
	return id, err
}

// SetScraper updates the attributes of a scraper.
func (s *Store) SetScraper(id string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.findScraper(id)
	if !ok {
		s.log.Error("could not find unique scraper", "id", id)
		err := notFound(KindScraper, id)
		s.observe(KindScraper, "set", err)
		return err
	}
	err := s.setAttrs(n, attrs)
	s.observe(KindScraper, "set", err)
	return err
}

// GetScraper returns a scraper plus a tvshow or season key holding the parent
// ID, depending on where the scraper lives.
func (s *Store) GetScraper(id string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findOne(showScraperPath(id))
	if !ok {
		n, ok = s.findOne(seasonScraperPath(id))
		if !ok {
			s.log.Error("could not find unique scraper", "id", id)
			return nil, notFound(KindScraper, id)
		}
	}
	return scraperAttrs(n), nil
}

func scraperAttrs(n *node) Attrs {
	res := n.attributes()
	res[string(n.parent.kind)] = n.parent.id
	return res
}

// RemoveScraper removes a scraper and its scraped seasons. Files reported by
// the scraper are kept and keep referencing the removed ID.
func (s *Store) RemoveScraper(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removeScraper(id)
	s.observe(KindScraper, "remove", err)
	return err
}

func (s *Store) removeScraper(id string) error {
	s.log.Debug("removing scraper", "id", id)
	n, ok := s.findScraper(id)
	if !ok {
		s.log.Error("can't remove scraper", "id", id)
		return notFound(KindScraper, id)
	}
	for _, ss := range s.findAll(P(S(KindShow), S(KindScraper, Eq("id", id)), S(KindScrapedSeason))) {
		if err := s.removeScrapedSeason(ss.id); err != nil {
			return &CascadeError{Kind: KindScraper, ID: id, Child: ss.id, Err: err}
		}
	}
	s.detach(n)
	return nil
}

// SeasonScrapers returns the scrapers attached to a season.
func (s *Store) SeasonScrapers(seasonID string) ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("searching scrapers for season", "season", seasonID)
	return collect(s.findAll(P(S(KindShow), S(KindSeason, Eq("id", seasonID)), S(KindScraper))), scraperAttrs), nil
}

// ShowScrapers returns the scrapers attached directly to a show.
func (s *Store) ShowScrapers(showID string) ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("searching scrapers for TV show", "show", showID)
	return collect(s.findAll(P(S(KindShow, Eq("id", showID)), S(KindScraper))), scraperAttrs), nil
}

// ActiveScrapers returns every show-level scraper followed by the scrapers of
// watched seasons.
func (s *Store) ActiveScrapers() ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := collect(s.findAll(P(S(KindShow), S(KindScraper))), scraperAttrs)
	watched := s.findAll(P(S(KindShow), S(KindSeason, Eq("status", StatusWatched)), S(KindScraper)))
	return append(out, collect(watched, scraperAttrs)...), nil
}

// Scraped season operations

// AddScrapedSeason creates a scraped season under a show-level scraper.
func (s *Store) AddScrapedSeason(scraperID string, attrs Attrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.create(KindScrapedSeason, showScraperPath(scraperID), attrs)
	s.observe(KindScrapedSeason, "add", err)
	return id, err
}

// SetScrapedSeason updates the attributes of a scraped season.
func (s *Store) SetScrapedSeason(id string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.set(KindScrapedSeason, id, scrapedSeasonPath(id), attrs)
	s.observe(KindScrapedSeason, "set", err)
	return err
}

// GetScrapedSeason returns a scraped season with the ID and source of its
// scraper.
func (s *Store) GetScrapedSeason(id string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.get(KindScrapedSeason, id, scrapedSeasonPath(id))
	if err != nil {
		s.log.Error("could not find unique scraped season", "id", id)
		return nil, err
	}
	return scrapedSeasonAttrs(n), nil
}

func scrapedSeasonAttrs(n *node) Attrs {
	res := n.attributes()
	res["scraper"] = n.parent.id
	if source, ok := n.parent.attrs["source"]; ok {
		res["source"] = source
	} else {
		res["source"] = ""
	}
	return res
}

// RemoveScrapedSeason removes a scraped season.
func (s *Store) RemoveScrapedSeason(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removeScrapedSeason(id)
	s.observe(KindScrapedSeason, "remove", err)
	return err
}

func (s *Store) removeScrapedSeason(id string) error {
	s.log.Debug("removing scraped season", "id", id)
	return s.removeOne(KindScrapedSeason, id, scrapedSeasonPath(id))
}

// ScrapedSeasons returns the scraped seasons found by the scrapers of a show.
func (s *Store) ScrapedSeasons(showID string) ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collect(s.findAll(P(S(KindShow, Eq("id", showID)), S(KindScraper), S(KindScrapedSeason))), scrapedSeasonAttrs), nil
}

// ScrapedSeasonsToNotify returns every scraped season flagged tbn="1".
func (s *Store) ScrapedSeasonsToNotify() ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collect(s.findAll(P(S(KindShow), S(KindScraper), S(KindScrapedSeason, Eq("tbn", "1")))), scrapedSeasonAttrs), nil
}

// ScrapedSeasonByURI returns the scraped season of a scraper with the given
// URI, or nil when there is none.
func (s *Store) ScrapedSeasonByURI(scraperID, uri string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findOne(P(S(KindShow), S(KindScraper, Eq("id", scraperID)), S(KindScrapedSeason, Eq("uri", uri))))
	if !ok {
		return nil, nil
	}
	return scrapedSeasonAttrs(n), nil
}
