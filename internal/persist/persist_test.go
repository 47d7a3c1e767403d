package persist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"github.com/shapedtime/tvscraper/internal/config"
	"github.com/shapedtime/tvscraper/internal/library"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// sampleStore builds a small library covering every node kind, including an
// attribute with an empty value.
func sampleStore(t *testing.T) *library.Store {
	t.Helper()
	require := require.New(t)
	s := library.NewStore()

	show, err := s.AddShow(library.Attrs{"title": "Sample & <Co>"})
	require.NoError(err)
	season, err := s.AddSeason(show, library.Attrs{"n": "1", "status": library.StatusWatched})
	require.NoError(err)
	e1, err := s.AddEpisode(season, library.Attrs{"n": "1", "airDate": "100", "title": ""})
	require.NoError(err)
	e2, err := s.AddEpisode(season, library.Attrs{"n": "2"})
	require.NoError(err)
	sc, err := s.AddScraper(library.SeasonParent(season), library.Attrs{"preference": "1", "delay": "60"})
	require.NoError(err)
	for _, ep := range []string{e1, e2} {
		_, err = s.AddFile(show, library.Attrs{
			"season": season, "episode": ep, "scraper": sc, "pubDate": "10",
			"uri": "ed2k://|file|Sample.avi|1|0123456789abcdef0123456789abcdef|/",
		})
		require.NoError(err)
	}
	showScraper, err := s.AddScraper(library.ShowParent(show), library.Attrs{"source": "rss"})
	require.NoError(err)
	_, err = s.AddScrapedSeason(showScraper, library.Attrs{"n": "2", "uri": "http://x?a=1&b=2", "tbn": "1"})
	require.NoError(err)
	_, err = s.AddShow(library.Attrs{})
	require.NoError(err)
	return s
}

// roundTrip saves the sample through b, loads it back, and checks the
// reloaded tree is identical.
func roundTrip(t *testing.T, b Backend) {
	t.Helper()
	require := require.New(t)
	ctx := context.Background()

	empty, err := b.Load(ctx)
	require.NoError(err)
	require.Zero(empty.Count())

	src := sampleStore(t)
	want := src.Snapshot()
	require.NoError(b.Save(ctx, want))

	doc, err := b.Load(ctx)
	require.NoError(err)
	require.Equal(want.Count(), doc.Count())

	dst := library.NewStore()
	require.NoError(dst.Restore(doc))
	require.Equal(want, dst.Snapshot())

	// A second save replaces, never appends.
	require.NoError(b.Save(ctx, want))
	doc, err = b.Load(ctx)
	require.NoError(err)
	require.Equal(want.Count(), doc.Count())
}

func TestFileBackendRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"tvscraper.xml", "tvscraper.yaml", "tvscraper.yml"} {
		t.Run(name, func(t *testing.T) {
			b, err := NewFileBackend(filepath.Join(t.TempDir(), name), quiet)
			require.NoError(t, err)
			defer b.Close()
			roundTrip(t, b)

			entries, err := os.ReadDir(filepath.Dir(b.Path()))
			require.NoError(t, err)
			for _, e := range entries {
				require.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
			}
		})
	}
}

func TestFileBackendLocked(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "tvscraper.xml")
	b, err := NewFileBackend(path, quiet)
	require.NoError(err)

	other := flock.New(path + ".lock")
	ok, err := other.TryLock()
	require.NoError(err)
	require.True(ok)

	_, err = b.Load(context.Background())
	require.ErrorIs(err, ErrLocked)
	require.ErrorIs(b.Save(context.Background(), &library.Document{}), ErrLocked)

	require.NoError(other.Unlock())
	_, err = b.Load(context.Background())
	require.NoError(err)
}

func TestXMLLegacyLayout(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	const legacy = `<?xml version="1.0"?>
<tvscraper>
  <tvshow id="s1" title="Legacy">
    <season id="se1" n="1" status="watched">
      <episode id="e1" n="1" airDate="1000"/>
      <scraper id="sc1" preference="1"/>
      <file id="f1" season="se1" episode="e1" scraper="sc1" pubDate="5" uri="ed2k://|file|a.avi|1|0123456789abcdef0123456789abcdef|/"/>
    </season>
    <scraper id="sc2" source="rss">
      <scrapedSeason id="ss1" n="2" uri="http://feed"/>
    </scraper>
  </tvshow>
</tvscraper>
`
	doc, err := XMLCodec{}.Unmarshal([]byte(legacy))
	require.NoError(err)
	require.Equal(7, doc.Count())

	s := library.NewStore()
	require.NoError(s.Restore(doc))

	got, err := s.GetFile("f1")
	require.NoError(err)
	require.Equal("5", got["pubDate"])
	got, err = s.GetScrapedSeason("ss1")
	require.NoError(err)
	require.Equal("rss", got["source"])
	got, err = s.GetScraper("sc1")
	require.NoError(err)
	require.Equal("se1", got["season"])

	out, err := XMLCodec{}.Marshal(s.Snapshot())
	require.NoError(err)
	require.Contains(string(out), `<tvshow id="s1" title="Legacy">`)
	require.Contains(string(out), `<episode id="e1" airDate="1000" n="1"></episode>`)
}

func TestXMLRejectsForeignRoot(t *testing.T) {
	_, err := XMLCodec{}.Unmarshal([]byte("<library><tvshow id=\"1\"/></library>"))
	require.ErrorIs(t, err, library.ErrInvalidDocument)

	doc, err := XMLCodec{}.Unmarshal([]byte("  \n"))
	require.NoError(t, err)
	require.Zero(t, doc.Count())
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		path string
		want Codec
	}{
		{"db.xml", XMLCodec{}},
		{"db.YAML", YAMLCodec{}},
		{"db.yml", YAMLCodec{}},
		{"db", XMLCodec{}},
	}
	for _, tt := range tests {
		if got := CodecFor(tt.path); got != tt.want {
			t.Errorf("CodecFor(%q) = %T, want %T", tt.path, got, tt.want)
		}
	}
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tvscraper.db")
	b, err := OpenSQL(DialectSQLite, path, quiet)
	require.NoError(t, err)
	roundTrip(t, b)
	require.NoError(t, b.Close())

	// Reopening does not re-run migrations and keeps the data.
	b, err = OpenSQL(DialectSQLite, path, quiet)
	require.NoError(t, err)
	defer b.Close()
	doc, err := b.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, doc.Count())
}

func TestPostgresBackendRoundTrip(t *testing.T) {
	dsn := os.Getenv("TVSCRAPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TVSCRAPER_TEST_POSTGRES_DSN not set")
	}

	b, err := OpenSQL(DialectPostgres, dsn, quiet)
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Save(context.Background(), &library.Document{}))
	roundTrip(t, b)
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	if got := DialectSQLite.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got := DialectPostgres.rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestBadgerBackendRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := OpenBadger(t.TempDir(), quiet)
	require.NoError(t, err)
	defer b.Close()
	roundTrip(t, b)
}

func TestBoltBackendRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := OpenBolt(filepath.Join(t.TempDir(), "tvscraper.bolt"), quiet)
	require.NoError(t, err)
	defer b.Close()
	roundTrip(t, b)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		cfg  config.StorageConfig
		want string
	}{
		{config.StorageConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "a.xml")}, "*persist.FileBackend"},
		{config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "a.db")}, "*persist.SQLBackend"},
		{config.StorageConfig{Backend: config.BackendBadger, Path: filepath.Join(dir, "badger")}, "*persist.BadgerBackend"},
		{config.StorageConfig{Backend: config.BackendBolt, Path: filepath.Join(dir, "a.bolt")}, "*persist.BoltBackend"},
	}
	for _, tt := range tests {
		b, err := Open(tt.cfg, quiet)
		require.NoError(t, err, tt.cfg.Backend)
		require.Equal(t, tt.want, typeName(b))
		require.NoError(t, b.Close())
	}

	_, err := Open(config.StorageConfig{Backend: "nope"}, quiet)
	require.Error(t, err)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
