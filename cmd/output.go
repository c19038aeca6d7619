package main

import (
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/report"
)

var (
	tabularFormats = []string{report.FormatTable, report.FormatCSV, report.FormatJSON, report.FormatXLSX}
	geoFormats     = append(slices.Clone(tabularFormats), report.FormatGeoJSON, report.FormatShape)
)

// addOutputFlags registers --format and --output on cmd.
func addOutputFlags(cmd *cobra.Command, formats []string) {
	f := cmd.Flags()
	f.String("format", report.FormatTable, "output format: "+strings.Join(formats, ", "))
	f.StringP("output", "o", "", "write output to this file instead of stdout")
}

// result is one command's output in every representation it supports.
type result struct {
	sheet string
	table report.Table
	data  any
	layer *report.Layer
}

// outputFormat reads --format and checks it against the allowed formats.
func outputFormat(cmd *cobra.Command, formats []string) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(strings.TrimSpace(format))
	if !slices.Contains(formats, format) {
		return "", eris.Errorf("%s: --format must be one of %s (got %q)", cmd.Name(), strings.Join(formats, ", "), format)
	}
	if format == report.FormatShape {
		if path, _ := cmd.Flags().GetString("output"); path == "" {
			return "", eris.Errorf("%s: --format shp requires --output", cmd.Name())
		}
	}
	return format, nil
}

// openOutput returns the writer for --output, stdout when unset.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "%s: create output file %s", cmd.Name(), path)
	}
	return f, f.Close, nil
}

// emit writes r in format.
func emit(cmd *cobra.Command, format string, r result) error {
	if format == report.FormatShape {
		path, _ := cmd.Flags().GetString("output")
		if r.layer == nil {
			return eris.Errorf("%s: shapefile output is not supported", cmd.Name())
		}
		return report.WriteShapefile(path, *r.layer)
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}

	switch format {
	case report.FormatCSV:
		err = report.WriteCSV(w, r.table)
	case report.FormatJSON:
		err = report.WriteJSON(w, r.data)
	case report.FormatXLSX:
		err = report.WriteXLSX(w, r.sheet, r.table)
	case report.FormatGeoJSON:
		if r.layer == nil {
			err = eris.Errorf("%s: geojson output is not supported", cmd.Name())
			break
		}
		err = report.WriteGeoJSON(w, *r.layer)
	default:
		err = report.WriteText(w, r.table)
	}

	if cerr := closeFn(); err == nil && cerr != nil {
		err = eris.Wrap(cerr, "close output")
	}
	return err
}

// parseYears parses "2020" or "2017-2021". Ordering is checked by the query
// engine.
func parseYears(s string) (model.YearRange, error) {
	s = strings.TrimSpace(s)
	lo, hi, ranged := strings.Cut(s, "-")
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return model.YearRange{}, eris.Errorf("invalid --years %q: want YYYY or YYYY-YYYY", s)
	}
	to := from
	if ranged {
		to, err = strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return model.YearRange{}, eris.Errorf("invalid --years %q: want YYYY or YYYY-YYYY", s)
		}
	}
	return model.YearRange{From: from, To: to}, nil
}

// parseMediums maps medium names to model.Medium values.
func parseMediums(in []string) ([]model.Medium, error) {
	out := make([]model.Medium, 0, len(in))
	for _, s := range in {
		m, ok := model.ParseMedium(s)
		if !ok {
			return nil, eris.Errorf("invalid medium %q: want AIR, WATER or LAND", s)
		}
		out = append(out, m)
	}
	return out, nil
}
