package main

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	out := renderTable(
		[]column{textColumn("ID"), textColumn("Title"), sizeColumn("Size"), timeColumn("Published")},
		[][]string{{"id1", "Lost", "1048576", "0"}, {"id2"}},
	)
	require.Contains(out, "ID")
	require.Contains(out, "Lost")
	require.Contains(out, "1.0 MiB")
	require.Contains(out, "ago")
	require.Contains(out, "id2")
	require.Len(strings.Split(strings.TrimSpace(out), "\n"), 6)

	require.Empty(renderTable(nil, nil))
}

func TestCellFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		col  column
		raw  string
		want string
	}{
		{"plain text kept", textColumn("T"), "", ""},
		{"empty time", timeColumn("T"), "", "-"},
		{"non-numeric time", timeColumn("T"), "soon", "soon"},
		{"empty size", sizeColumn("S"), "", "-"},
		{"zero size", sizeColumn("S"), "0", "-"},
		{"size", sizeColumn("S"), "1024", "1.0 KiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cell(tt.col, tt.raw); got != tt.want {
				t.Errorf("cell(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
