package link

import (
	"errors"
	"testing"
)

const (
	testHash   = "c9e15763f722f23e98a29decdfae341b98d53056"
	testMagnet = "magnet:?xt=urn:btih:" + testHash + "&dn=Show.S01E02.720p.mkv"
)

func TestDecodeED2K(t *testing.T) {
	l, err := Decode("ed2k://|file|Show%20S01E01.avi|367001600|5E7B3C6A1B4A39E8A0F2DCB4A3C2D1E0|/")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if l.Scheme != SchemeED2K {
		t.Errorf("Scheme = %q, want %q", l.Scheme, SchemeED2K)
	}
	if l.FileName != "Show S01E01.avi" {
		t.Errorf("FileName = %q, want %q", l.FileName, "Show S01E01.avi")
	}
	if l.Size != 367001600 {
		t.Errorf("Size = %d, want 367001600", l.Size)
	}
	if l.Hash != "5e7b3c6a1b4a39e8a0f2dcb4a3c2d1e0" {
		t.Errorf("Hash = %q", l.Hash)
	}
	if l.IsSubtitle() {
		t.Error("IsSubtitle() = true for an avi file")
	}
}

func TestDecodeMagnet(t *testing.T) {
	l, err := Decode(testMagnet)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if l.Scheme != SchemeMagnet {
		t.Errorf("Scheme = %q, want %q", l.Scheme, SchemeMagnet)
	}
	if l.FileName != "Show.S01E02.720p.mkv" {
		t.Errorf("FileName = %q", l.FileName)
	}
	if l.Hash != testHash {
		t.Errorf("Hash = %q, want %q", l.Hash, testHash)
	}
}

func TestIsSubtitle(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Show.S01E01.srt", true},
		{"Show.S01E01.avi", false},
		{"Show.S01E01.srt.avi", false},
		{"Show.S01E01.SRT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Link{FileName: tt.name}
			if got := l.IsSubtitle(); got != tt.want {
				t.Errorf("IsSubtitle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"http", "http://example.com/file.avi"},
		{"ed2k server link", "ed2k://|server|1.2.3.4|4661|/"},
		{"ed2k missing parts", "ed2k://|file|name.avi|/"},
		{"ed2k bad size", "ed2k://|file|name.avi|big|5E7B3C6A1B4A39E8A0F2DCB4A3C2D1E0|/"},
		{"ed2k bad hash", "ed2k://|file|name.avi|100|XYZ|/"},
		{"ed2k empty name", "ed2k://|file||100|5E7B3C6A1B4A39E8A0F2DCB4A3C2D1E0|/"},
		{"magnet bad info hash", "magnet:?xt=urn:btih:zz&dn=foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.uri)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.uri, err)
			}
		})
	}
}
