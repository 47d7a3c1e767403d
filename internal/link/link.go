// Package link decodes the file URIs reported by scrapers.
package link

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// ErrMalformed is returned for URIs that cannot be decoded.
var ErrMalformed = errors.New("malformed file URI")

const (
	SchemeED2K   = "ed2k"
	SchemeMagnet = "magnet"
)

// Link describes the file a URI points to.
type Link struct {
	Scheme   string
	FileName string
	Size     int64  // ed2k only
	Hash     string // ed2k MD4 hash or BitTorrent info hash, hex
}

// IsSubtitle reports whether the link points to a subtitle file.
func (l *Link) IsSubtitle() bool {
	return strings.HasSuffix(l.FileName, ".srt")
}

// Decoder turns a URI into a Link.
type Decoder interface {
	Decode(uri string) (*Link, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(uri string) (*Link, error)

func (f DecoderFunc) Decode(uri string) (*Link, error) { return f(uri) }

// Default decodes ed2k and magnet URIs.
var Default Decoder = DecoderFunc(Decode)

// Decode parses an ed2k or magnet URI.
func Decode(uri string) (*Link, error) {
	lower := strings.ToLower(uri)
	switch {
	case strings.HasPrefix(lower, "ed2k://"):
		return ParseED2K(uri)
	case strings.HasPrefix(lower, "magnet:"):
		return ParseMagnet(uri)
	}
	return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrMalformed, uri)
}

// ParseED2K parses an ed2k file link of the form
// ed2k://|file|<name>|<size>|<hash>|/ with optional trailing sections.
func ParseED2K(uri string) (*Link, error) {
	if len(uri) < len("ed2k://") || !strings.EqualFold(uri[:len("ed2k://")], "ed2k://") {
		return nil, fmt.Errorf("%w: not an ed2k link", ErrMalformed)
	}
	parts := strings.Split(uri[len("ed2k://"):], "|")
	if len(parts) < 6 || parts[0] != "" || !strings.EqualFold(parts[1], "file") {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, uri)
	}

	name, err := url.PathUnescape(parts[2])
	if err != nil || name == "" {
		return nil, fmt.Errorf("%w: bad file name in %q", ErrMalformed, uri)
	}
	size, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("%w: bad size in %q", ErrMalformed, uri)
	}
	hash := strings.ToLower(parts[4])
	if len(hash) != 32 || strings.Trim(hash, "0123456789abcdef") != "" {
		return nil, fmt.Errorf("%w: bad hash in %q", ErrMalformed, uri)
	}

	return &Link{Scheme: SchemeED2K, FileName: name, Size: size, Hash: hash}, nil
}

// ParseMagnet parses a BitTorrent magnet link; the display name is used as
// the file name.
func ParseMagnet(uri string) (*Link, error) {
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &Link{
		Scheme:   SchemeMagnet,
		FileName: m.DisplayName,
		Hash:     m.InfoHash.HexString(),
	}, nil
}
