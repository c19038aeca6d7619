// Package fetcher reads local input files for the CLI: name lists from CSV or
// XLSX and scoring records from JSON.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus data rows. Rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the first header matching any of names
// (case-insensitive, surrounding spaces ignored), or -1.
func (t Table) Column(names ...string) int {
	for _, n := range names {
		for i, h := range t.Header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(n)) {
				return i
			}
		}
	}
	return -1
}

// Value returns row[col], or "" when the row is short or col is -1.
func Value(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// ReadTable reads a CSV, TSV or XLSX file chosen by extension. The first
// non-empty row is the header; blank rows are dropped.
func ReadTable(ctx context.Context, path string) (Table, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{})
	case ".csv", ".tsv", ".txt", "":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return Table{}, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		opts := CSVOptions{TrimSpace: true, LazyQuotes: true}
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts.Delimiter = '\t'
		}
		rows, err = ReadCSV(ctx, f, opts)
	default:
		return Table{}, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return Table{}, err
	}

	var t Table
	for _, r := range rows {
		if blank(r) {
			continue
		}
		if t.Header == nil {
			t.Header = r
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	if t.Header == nil {
		return Table{}, eris.Errorf("fetcher: %s has no header row", path)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
