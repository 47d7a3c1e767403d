package library

import "math"

const secondsPerDay = 86400

func showPath(id string) Path { return P(S(KindShow, Eq("id", id))) }

func seasonPath(id string) Path { return P(S(KindShow), S(KindSeason, Eq("id", id))) }

func episodePath(id string) Path {
	return P(S(KindShow), S(KindSeason), S(KindEpisode, Eq("id", id)))
}

// Show operations

// AddShow creates a show at the document root and returns its ID.
func (s *Store) AddShow(attrs Attrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.create(KindShow, nil, attrs)
	s.observe(KindShow, "add", err)
	return id, err
}

// SetShow updates the attributes of a show.
func (s *Store) SetShow(id string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.set(KindShow, id, showPath(id), attrs)
	s.observe(KindShow, "set", err)
	return err
}

// GetShow returns the attributes of a show plus lastAirDate, nextAirDate and
// lastPubDate computed over its watched seasons. Each derived field is omitted
// when nothing qualifies.
func (s *Store) GetShow(id string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getShow(id)
}

func (s *Store) getShow(id string) (Attrs, error) {
	show, err := s.get(KindShow, id, showPath(id))
	if err != nil {
		s.log.Error("can't find unique show", "id", id)
		return nil, err
	}
	res := show.attributes()

	watched := S(KindSeason, Eq("status", StatusWatched))

	boundary := dayBoundary(s.now().Unix())
	var last, next int64
	var hasLast, hasNext bool
	for _, ep := range s.findAll(P(S(KindShow, Eq("id", id)), watched, S(KindEpisode, Has("airDate")))) {
		raw := ep.attrs["airDate"]
		air, ok := parseNumber(raw)
		if !ok {
			s.log.Debug("ignoring episode with invalid air date", "episode", ep.id, "airDate", raw)
			continue
		}
		if air < boundary {
			if !hasLast || last < air {
				last, hasLast = air, true
				res["lastAirDate"] = raw
			}
		} else if !hasNext || next > air {
			next, hasNext = air, true
			res["nextAirDate"] = raw
		}
	}

	var lastPub int64
	var hasPub bool
	for _, f := range s.findAll(P(S(KindShow, Eq("id", id)), watched, S(KindFile, Has("pubDate")))) {
		raw := f.attrs["pubDate"]
		pub, ok := parseNumber(raw)
		if !ok {
			continue
		}
		if !hasPub || lastPub < pub {
			lastPub, hasPub = pub, true
			res["lastPubDate"] = raw
		}
	}

	return res, nil
}

// dayBoundary returns the start of the day before now, in unix seconds.
func dayBoundary(now int64) int64 {
	return int64(math.Floor(float64(now)/secondsPerDay-1)) * secondsPerDay
}

// RemoveShow removes a show, its seasons and its scrapers.
func (s *Store) RemoveShow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removeShow(id)
	s.observe(KindShow, "remove", err)
	return err
}

func (s *Store) removeShow(id string) error {
	if _, ok := s.findOne(showPath(id)); !ok {
		s.log.Error("can't remove TV show", "id", id)
		return notFound(KindShow, id)
	}

	for _, season := range s.findAll(P(S(KindShow, Eq("id", id)), S(KindSeason))) {
		s.log.Debug("removing season", "id", season.id)
		if err := s.removeSeason(season.id); err != nil {
			return &CascadeError{Kind: KindShow, ID: id, Child: season.id, Err: err}
		}
	}
	for _, scraper := range s.findAll(P(S(KindShow, Eq("id", id)), S(KindScraper))) {
		s.log.Debug("removing scraper", "id", scraper.id)
		if err := s.removeScraper(scraper.id); err != nil {
			return &CascadeError{Kind: KindShow, ID: id, Child: scraper.id, Err: err}
		}
	}

	return s.removeOne(KindShow, id, showPath(id))
}

// ListShows returns every show, with derived fields, in document order.
func (s *Store) ListShows() ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shows := s.findAll(P(S(KindShow)))
	out := make([]Attrs, 0, len(shows))
	for _, n := range shows {
		show, err := s.getShow(n.id)
		if err != nil {
			return nil, err
		}
		out = append(out, show)
	}
	return out, nil
}

// Season operations

// AddSeason creates a season under a show.
func (s *Store) AddSeason(showID string, attrs Attrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.create(KindSeason, showPath(showID), attrs)
	s.observe(KindSeason, "add", err)
	return id, err
}

// SetSeason updates the attributes of a season.
func (s *Store) SetSeason(id string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.set(KindSeason, id, seasonPath(id), attrs)
	s.observe(KindSeason, "set", err)
	return err
}

// GetSeason returns a season with its tvshow ID.
func (s *Store) GetSeason(id string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.get(KindSeason, id, seasonPath(id))
	if err != nil {
		return nil, err
	}
	return seasonAttrs(n), nil
}

func seasonAttrs(n *node) Attrs {
	res := n.attributes()
	res["tvshow"] = n.parent.id
	return res
}

// RemoveSeason removes a season with its episodes (and their files) and its
// scrapers.
func (s *Store) RemoveSeason(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removeSeason(id)
	s.observe(KindSeason, "remove", err)
	return err
}

func (s *Store) removeSeason(id string) error {
	if _, ok := s.findOne(seasonPath(id)); !ok {
		s.log.Error("can't remove season", "id", id)
		return notFound(KindSeason, id)
	}

	episodes := s.findAll(P(S(KindShow), S(KindSeason, Eq("id", id)), S(KindEpisode)))
	scrapers := s.findAll(P(S(KindShow), S(KindSeason, Eq("id", id)), S(KindScraper)))

	for _, ep := range episodes {
		s.log.Debug("removing episode", "id", ep.id)
		if err := s.removeEpisode(ep.id); err != nil {
			return &CascadeError{Kind: KindSeason, ID: id, Child: ep.id, Err: err}
		}
	}
	for _, sc := range scrapers {
		s.log.Debug("removing scraper", "id", sc.id)
		if err := s.removeScraper(sc.id); err != nil {
			return &CascadeError{Kind: KindSeason, ID: id, Child: sc.id, Err: err}
		}
	}

	return s.removeOne(KindSeason, id, seasonPath(id))
}

// ShowSeasons returns the seasons of a show in document order.
func (s *Store) ShowSeasons(showID string) ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collect(s.findAll(P(S(KindShow, Eq("id", showID)), S(KindSeason))), seasonAttrs), nil
}

// SeasonByNumber returns the single season of a show with the given number,
// or nil when there is none (or more than one).
func (s *Store) SeasonByNumber(showID, n string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	season, ok := s.findOne(P(S(KindShow, Eq("id", showID)), S(KindSeason, Eq("n", n))))
	if !ok {
		return nil, nil
	}
	return seasonAttrs(season), nil
}

// WatchedSeasons returns every season whose status is watched.
func (s *Store) WatchedSeasons() ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collect(s.findAll(P(S(KindShow), S(KindSeason, Eq("status", StatusWatched)))), seasonAttrs), nil
}

// Episode operations

// AddEpisode creates an episode under a season.
func (s *Store) AddEpisode(seasonID string, attrs Attrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.create(KindEpisode, seasonPath(seasonID), attrs)
	s.observe(KindEpisode, "add", err)
	return id, err
}

// SetEpisode updates the attributes of an episode.
func (s *Store) SetEpisode(id string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.set(KindEpisode, id, episodePath(id), attrs)
	s.observe(KindEpisode, "set", err)
	return err
}

// GetEpisode returns an episode with its season ID.
func (s *Store) GetEpisode(id string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.get(KindEpisode, id, episodePath(id))
	if err != nil {
		return nil, err
	}
	return episodeAttrs(n), nil
}

func episodeAttrs(n *node) Attrs {
	res := n.attributes()
	res["season"] = n.parent.id
	return res
}

// RemoveEpisode removes an episode and every file that belongs to it.
func (s *Store) RemoveEpisode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removeEpisode(id)
	s.observe(KindEpisode, "remove", err)
	return err
}

func (s *Store) removeEpisode(id string) error {
	if _, ok := s.findOne(episodePath(id)); !ok {
		s.log.Error("can't remove episode", "id", id)
		return notFound(KindEpisode, id)
	}

	for _, f := range s.findAll(P(S(KindShow), S(KindSeason), S(KindFile, Eq("episode", id)))) {
		if err := s.removeFile(f.id); err != nil {
			return &CascadeError{Kind: KindEpisode, ID: id, Child: f.id, Err: err}
		}
	}

	return s.removeOne(KindEpisode, id, episodePath(id))
}

// SeasonEpisodes returns the episodes of a season in document order.
func (s *Store) SeasonEpisodes(seasonID string) ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return collect(s.findAll(P(S(KindShow), S(KindSeason, Eq("id", seasonID)), S(KindEpisode))), episodeAttrs), nil
}

// EpisodeByIndex finds an episode by show ID, season number and episode
// number.
func (s *Store) EpisodeByIndex(showID, seasonN, episodeN string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.findOne(P(
		S(KindShow, Eq("id", showID)),
		S(KindSeason, Eq("n", seasonN)),
		S(KindEpisode, Eq("n", episodeN)),
	))
	if !ok {
		return nil, notFound(KindEpisode, showID+"/"+seasonN+"/"+episodeN)
	}
	return episodeAttrs(n), nil
}
