package main

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. format, when set, turns the raw
// attribute value into the displayed cell.
type column struct {
	title  string
	align  text.Align
	format func(raw string) string
}

func textColumn(title string) column { return column{title: title, align: text.AlignLeft} }

// timeColumn renders unix-seconds attributes relative to now.
func timeColumn(title string) column {
	return column{title: title, align: text.AlignLeft, format: relativeTime}
}

// sizeColumn renders byte counts in IEC units.
func sizeColumn(title string) column {
	return column{title: title, align: text.AlignRight, format: byteSize}
}

func countColumn(title string) column { return column{title: title, align: text.AlignRight} }

// renderTable formats rows of raw attribute values. Short rows are padded
// with empty cells, and empty values show as "-" in formatted columns.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i, col := range columns {
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			r[i] = cell(col, raw)
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

func cell(col column, raw string) string {
	if col.format == nil {
		return raw
	}
	if raw == "" {
		return "-"
	}
	return col.format(raw)
}

// relativeTime shows values that are not numbers as they are.
func relativeTime(raw string) string {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	return humanize.Time(time.Unix(secs, 0))
}

func byteSize(raw string) string {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return "-"
	}
	return humanize.IBytes(n)
}
