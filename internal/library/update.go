package library

// Field is an optional attribute change: left alone, set to a value, or
// removed.
type Field struct {
	value string
	set   bool
}

// Set returns a Field that writes v.
func Set(v string) Field { return Field{value: v, set: true} }

// Clear returns a Field that removes the attribute.
func Clear() Field { return Field{value: RemoveValue, set: true} }

func (f Field) apply(attrs Attrs, key string) {
	if f.set {
		attrs[key] = f.value
	}
}

// ShowUpdate lists the settable show attributes.
type ShowUpdate struct {
	Title Field
}

// Attrs converts the update into an attribute map.
func (u ShowUpdate) Attrs() Attrs {
	a := Attrs{}
	u.Title.apply(a, "title")
	return a
}

// SeasonUpdate lists the settable season attributes.
type SeasonUpdate struct {
	N      Field
	Status Field
}

func (u SeasonUpdate) Attrs() Attrs {
	a := Attrs{}
	u.N.apply(a, "n")
	u.Status.apply(a, "status")
	return a
}

// EpisodeUpdate lists the settable episode attributes.
type EpisodeUpdate struct {
	N       Field
	AirDate Field
	Title   Field
}

func (u EpisodeUpdate) Attrs() Attrs {
	a := Attrs{}
	u.N.apply(a, "n")
	u.AirDate.apply(a, "airDate")
	u.Title.apply(a, "title")
	return a
}

// ScraperUpdate lists the settable scraper attributes.
type ScraperUpdate struct {
	URI        Field
	Source     Field
	Preference Field
	Delay      Field
	AutoAdd    Field
	Notify     Field
}

func (u ScraperUpdate) Attrs() Attrs {
	a := Attrs{}
	u.URI.apply(a, "uri")
	u.Source.apply(a, "source")
	u.Preference.apply(a, "preference")
	u.Delay.apply(a, "delay")
	u.AutoAdd.apply(a, "autoAdd")
	u.Notify.apply(a, "notify")
	return a
}

// FileUpdate lists the settable file attributes.
type FileUpdate struct {
	URI     Field
	Season  Field
	Episode Field
	Scraper Field
	PubDate Field
	Type    Field
}

func (u FileUpdate) Attrs() Attrs {
	a := Attrs{}
	u.URI.apply(a, "uri")
	u.Season.apply(a, "season")
	u.Episode.apply(a, "episode")
	u.Scraper.apply(a, "scraper")
	u.PubDate.apply(a, "pubDate")
	u.Type.apply(a, "type")
	return a
}

// ScrapedSeasonUpdate lists the settable scraped season attributes.
type ScrapedSeasonUpdate struct {
	URI  Field
	N    Field
	Hide Field
	TBN  Field
}

func (u ScrapedSeasonUpdate) Attrs() Attrs {
	a := Attrs{}
	u.URI.apply(a, "uri")
	u.N.apply(a, "n")
	u.Hide.apply(a, "hide")
	u.TBN.apply(a, "tbn")
	return a
}

// UpdateShow applies a typed show update.
func (s *Store) UpdateShow(id string, u ShowUpdate) error { return s.SetShow(id, u.Attrs()) }

// UpdateSeason applies a typed season update.
func (s *Store) UpdateSeason(id string, u SeasonUpdate) error { return s.SetSeason(id, u.Attrs()) }

// UpdateEpisode applies a typed episode update.
func (s *Store) UpdateEpisode(id string, u EpisodeUpdate) error { return s.SetEpisode(id, u.Attrs()) }

// UpdateScraper applies a typed scraper update.
func (s *Store) UpdateScraper(id string, u ScraperUpdate) error { return s.SetScraper(id, u.Attrs()) }

// UpdateFile applies a typed file update.
func (s *Store) UpdateFile(id string, u FileUpdate) error { return s.SetFile(id, u.Attrs()) }

// UpdateScrapedSeason applies a typed scraped season update.
func (s *Store) UpdateScrapedSeason(id string, u ScrapedSeasonUpdate) error {
	return s.SetScrapedSeason(id, u.Attrs())
}
