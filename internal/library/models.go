package library

import "strconv"

// Kind is the tag of a node in the document tree.
type Kind string

const (
	KindRoot          Kind = "tvscraper"
	KindShow          Kind = "tvshow"
	KindSeason        Kind = "season"
	KindEpisode       Kind = "episode"
	KindScraper       Kind = "scraper"
	KindFile          Kind = "file"
	KindScrapedSeason Kind = "scrapedSeason"
)

// Kinds lists every non-root node kind in hierarchy order.
var Kinds = []Kind{KindShow, KindSeason, KindEpisode, KindScraper, KindFile, KindScrapedSeason}

// RemoveValue passed as an attribute value removes the attribute instead of
// setting it.
const RemoveValue = "_REMOVE_"

// StatusWatched marks a season as actively tracked.
const StatusWatched = "watched"

// FileTypeED2K is the default file type; an empty type means ed2k too.
const FileTypeED2K = "ed2k"

// Attrs is the attribute map of a node. A missing key is an absent attribute,
// which is not the same as an empty value.
type Attrs map[string]string

// Clone returns a copy of the map.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Int parses an integer attribute. ok is false when the attribute is absent or
// not a number.
func (a Attrs) Int(key string) (n int64, ok bool) {
	v, present := a[key]
	if !present {
		return 0, false
	}
	return parseNumber(v)
}

func parseNumber(v string) (int64, bool) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// whitelist holds the settable attributes per kind.
var whitelist = map[Kind]map[string]bool{
	KindShow:          {"title": true},
	KindSeason:        {"n": true, "status": true},
	KindEpisode:       {"n": true, "airDate": true, "title": true},
	KindScraper:       {"uri": true, "source": true, "preference": true, "delay": true, "autoAdd": true, "notify": true},
	KindFile:          {"uri": true, "season": true, "episode": true, "scraper": true, "pubDate": true, "type": true},
	KindScrapedSeason: {"uri": true, "n": true, "hide": true, "tbn": true},
}

// allowedChildren describes the legal tree shape.
var allowedChildren = map[Kind]map[Kind]bool{
	KindRoot:    {KindShow: true},
	KindShow:    {KindSeason: true, KindScraper: true},
	KindSeason:  {KindEpisode: true, KindScraper: true, KindFile: true},
	KindScraper: {KindScrapedSeason: true},
}

// ParentRef names the parent of a scraper, which is either a show or a season.
type ParentRef struct {
	Kind Kind
	ID   string
}

// ShowParent refers to a show by ID.
func ShowParent(id string) ParentRef { return ParentRef{Kind: KindShow, ID: id} }

// SeasonParent refers to a season by ID.
func SeasonParent(id string) ParentRef { return ParentRef{Kind: KindSeason, ID: id} }

// node is a single element of the document tree.
type node struct {
	kind     Kind
	id       string
	attrs    Attrs
	parent   *node
	children []*node
}

func (n *node) attributes() Attrs {
	out := n.attrs.Clone()
	out["id"] = n.id
	return out
}

func (n *node) removeChild(c *node) bool {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return true
		}
	}
	return false
}
