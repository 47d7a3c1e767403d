package library

func filePath(conds ...Cond) Path {
	return P(S(KindShow), S(KindSeason), S(KindFile, conds...))
}

// FileQuery selects files by their reference attributes. Empty fields are not
// filtered on.
type FileQuery struct {
	Season  string
	Episode string
	Scraper string

	// PublishedBy, when set, keeps only files with pubDate <= *PublishedBy.
	PublishedBy *int64
}

func (q FileQuery) path() Path {
	var conds []Cond
	if q.Episode != "" {
		conds = append(conds, Eq("episode", q.Episode))
	}
	if q.Season != "" {
		conds = append(conds, Eq("season", q.Season))
	}
	if q.Scraper != "" {
		conds = append(conds, Eq("scraper", q.Scraper))
	}
	if q.PublishedBy != nil {
		conds = append(conds, AtMost("pubDate", *q.PublishedBy))
	}
	return filePath(conds...)
}

// AddFile creates a file under the season named by attrs["season"], which
// must belong to the given show.
func (s *Store) AddFile(showID string, attrs Attrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := P(S(KindShow, Eq("id", showID)), S(KindSeason, Eq("id", attrs["season"])))
	id, err := s.create(KindFile, parent, attrs)
	if err != nil {
		s.log.Error("can't create new file for TV show", "show", showID, "error", err)
	}
	s.observe(KindFile, "add", err)
	return id, err
}

// SetFile updates the attributes of a file.
func (s *Store) SetFile(id string, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.set(KindFile, id, filePath(Eq("id", id)), attrs)
	s.observe(KindFile, "set", err)
	return err
}

// GetFile returns the attributes of a file.
func (s *Store) GetFile(id string) (Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.get(KindFile, id, filePath(Eq("id", id)))
	if err != nil {
		s.log.Error("can't find unique file", "id", id)
		return nil, err
	}
	return n.attributes(), nil
}

// RemoveFile removes a file.
func (s *Store) RemoveFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removeFile(id)
	s.observe(KindFile, "remove", err)
	return err
}

func (s *Store) removeFile(id string) error {
	return s.removeOne(KindFile, id, filePath(Eq("id", id)))
}

// FindFiles returns the files matching q in document order.
func (s *Store) FindFiles(q FileQuery) ([]Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := q.path()
	s.log.Debug("query for candidate files", "path", p.String())
	return collect(s.findAll(p), (*node).attributes), nil
}

// EpisodeFiles returns every file that belongs to an episode.
func (s *Store) EpisodeFiles(episodeID string) ([]Attrs, error) {
	return s.FindFiles(FileQuery{Episode: episodeID})
}

// SeasonFileIDs returns the IDs of the files whose season attribute is
// seasonID.
func (s *Store) SeasonFileIDs(seasonID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ids(s.findAll(filePath(Eq("season", seasonID)))), nil
}

// ScraperFileIDs returns the IDs of the files reported by a scraper. Files of
// a removed scraper are still found here.
func (s *Store) ScraperFileIDs(scraperID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ids(s.findAll(filePath(Eq("scraper", scraperID)))), nil
}
