package library

import "testing"

func TestCondMatch(t *testing.T) {
	n := &node{kind: KindFile, id: "f1", attrs: Attrs{"pubDate": "100", "type": "", "bad": "x1"}}

	tests := []struct {
		name string
		cond Cond
		want bool
	}{
		{"eq id", Eq("id", "f1"), true},
		{"eq id mismatch", Eq("id", "f2"), false},
		{"eq attr", Eq("pubDate", "100"), true},
		{"eq empty value", Eq("type", ""), true},
		{"eq absent", Eq("season", ""), false},
		{"has present", Has("type"), true},
		{"has absent", Has("season"), false},
		{"at most equal", AtMost("pubDate", 100), true},
		{"at most above", AtMost("pubDate", 200), true},
		{"at most below", AtMost("pubDate", 99), false},
		{"at most absent", AtMost("season", 1000), false},
		{"at most non-numeric", AtMost("bad", 1000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.match(n); got != tt.want {
				t.Errorf("match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindAllDocumentOrder(t *testing.T) {
	s := newTestStore()
	a, _ := s.AddShow(Attrs{"title": "a"})
	b, _ := s.AddShow(Attrs{"title": "b"})
	sa, _ := s.AddSeason(a, Attrs{"n": "1"})
	sb, _ := s.AddSeason(b, Attrs{"n": "1"})
	sa2, _ := s.AddSeason(a, Attrs{"n": "2"})

	got := ids(s.findAll(P(S(KindShow), S(KindSeason))))
	want := []string{sa, sa2, sb}
	if len(got) != len(want) {
		t.Fatalf("findAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("findAll()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if got := s.findAll(P(S(KindShow), S(KindSeason, Eq("n", "1")))); len(got) != 2 {
		t.Errorf("seasons n=1: got %d matches, want 2", len(got))
	}
	if got := s.findAll(nil); got != nil {
		t.Errorf("empty path matched %d nodes", len(got))
	}
}

func TestFindOneRequiresUniqueMatch(t *testing.T) {
	s := newTestStore()
	a, _ := s.AddShow(Attrs{"title": "same"})
	_, _ = s.AddShow(Attrs{"title": "same"})

	if _, ok := s.findOne(P(S(KindShow, Eq("title", "same")))); ok {
		t.Error("findOne() matched with two candidates")
	}
	if _, ok := s.findOne(P(S(KindShow, Eq("title", "none")))); ok {
		t.Error("findOne() matched with zero candidates")
	}
	n, ok := s.findOne(P(S(KindShow, Eq("id", a))))
	if !ok || n.id != a {
		t.Errorf("findOne(id=%s) = %v, %v", a, n, ok)
	}
}

// The indexed id lookup must give the same answer as a full scan.
func TestIndexedLookupChecksAncestry(t *testing.T) {
	s := newTestStore()
	a, _ := s.AddShow(nil)
	b, _ := s.AddShow(nil)
	season, _ := s.AddSeason(a, nil)

	tests := []struct {
		name string
		path Path
		want int
	}{
		{"under own show", P(S(KindShow, Eq("id", a)), S(KindSeason, Eq("id", season))), 1},
		{"under other show", P(S(KindShow, Eq("id", b)), S(KindSeason, Eq("id", season))), 0},
		{"any show", P(S(KindShow), S(KindSeason, Eq("id", season))), 1},
		{"wrong kind", P(S(KindShow), S(KindEpisode, Eq("id", season))), 0},
		{"wrong depth", P(S(KindShow, Eq("id", season))), 0},
		{"extra condition", P(S(KindShow), S(KindSeason, Eq("id", season), Has("n"))), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(s.findAll(tt.path)); got != tt.want {
				t.Errorf("findAll(%s) matched %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	p := P(S(KindShow, Eq("id", "1")), S(KindSeason), S(KindFile, Has("pubDate"), AtMost("pubDate", 5)))
	want := "/tvscraper/tvshow[@id='1']/season/file[@pubDate and @pubDate <= 5]"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFileQueryPath(t *testing.T) {
	cutoff := int64(42)
	q := FileQuery{Episode: "e", Scraper: "s", PublishedBy: &cutoff}
	want := "/tvscraper/tvshow/season/file[@episode='e' and @scraper='s' and @pubDate <= 42]"
	if got := q.path().String(); got != want {
		t.Errorf("path() = %q, want %q", got, want)
	}
}
