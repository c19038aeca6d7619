package report

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/model"
)

// ColumnKind is the attribute type of a layer column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt
	KindFloat
)

// Column is one point attribute. Names are kept to ten characters so they
// survive the dBASE field-name limit of shapefiles.
type Column struct {
	Name string
	Kind ColumnKind
}

// Point is one located feature; Values line up with the layer's Columns.
type Point struct {
	ID     string
	Lon    float64
	Lat    float64
	Values []any
}

// Layer is a set of WGS84 points with a fixed attribute schema.
type Layer struct {
	Columns []Column
	Points  []Point
}

// wgs84PRJ is the projection file content for EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// FacilityLayer builds a point layer from facilities. Facilities without
// coordinates are skipped.
func FacilityLayer(rows []model.Facility) Layer {
	l := Layer{Columns: []Column{
		{"id", KindString}, {"name", KindString}, {"parent", KindString}, {"city", KindString},
		{"country", KindString}, {"activity", KindString}, {"start", KindString},
	}}
	skipped := 0
	for _, f := range rows {
		if !f.HasLocation() {
			skipped++
			continue
		}
		l.Points = append(l.Points, Point{
			ID: f.ID, Lon: *f.Lon, Lat: *f.Lat,
			Values: []any{f.ID, f.Name, f.ParentCompany, f.City, f.CountryCode, f.ActivityCode, f.StartDate},
		})
	}
	logSkipped("facilities", skipped)
	return l
}

// LeadLayer builds a point layer from scored leads. Leads without
// coordinates are skipped.
func LeadLayer(rows []model.Lead) Layer {
	l := Layer{Columns: []Column{
		{"id", KindString}, {"name", KindString}, {"country", KindString}, {"activity", KindString},
		{"score", KindInt}, {"tier", KindInt}, {"tier_label", KindString}, {"total_t", KindFloat},
		{"energy_tj", KindFloat},
	}}
	skipped := 0
	for _, ld := range rows {
		if !ld.HasLocation() {
			skipped++
			continue
		}
		l.Points = append(l.Points, Point{
			ID: ld.ID, Lon: *ld.Lon, Lat: *ld.Lat,
			Values: []any{
				ld.ID, ld.DisplayName(), ld.CountryCode, ld.ActivityCode,
				ld.Score, ld.Tier, ld.TierLabel, model.Tonnes(ld.TotalKg), ld.EnergyInputTJ,
			},
		})
	}
	logSkipped("leads", skipped)
	return l
}

func logSkipped(layer string, n int) {
	if n > 0 {
		zap.L().Debug("report: skipped features without coordinates",
			zap.String("layer", layer),
			zap.Int("skipped", n),
		)
	}
}

// WriteGeoJSON writes the layer as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, l Layer) error {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(l.Points))}
	for _, p := range l.Points {
		props := make(map[string]any, len(l.Columns))
		for i, c := range l.Columns {
			if i < len(p.Values) {
				props[c.Name] = p.Values[i]
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.ID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}),
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "report: encode geojson")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "report: write geojson")
	}
	return nil
}

func shpField(c Column) shp.Field {
	switch c.Kind {
	case KindInt:
		return shp.NumberField(c.Name, 10)
	case KindFloat:
		return shp.FloatField(c.Name, 19, 3)
	default:
		return shp.StringField(c.Name, 254)
	}
}

// fitBytes cuts s to at most n bytes without splitting a rune.
func fitBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// WriteShapefile writes the layer as a point shapefile (.shp, .shx, .dbf
// and a WGS84 .prj) at path.
func WriteShapefile(path string, l Layer) error {
	base := strings.TrimSuffix(path, ".shp")

	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "report: create shapefile %s", path)
	}

	fields := make([]shp.Field, len(l.Columns))
	for i, c := range l.Columns {
		fields[i] = shpField(c)
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return eris.Wrap(err, "report: set shapefile fields")
	}

	for _, p := range l.Points {
		n := int(w.Write(&shp.Point{X: p.Lon, Y: p.Lat}))
		for i, v := range p.Values {
			if s, ok := v.(string); ok {
				v = fitBytes(s, int(fields[i].Size))
			}
			if err := w.WriteAttribute(n, i, v); err != nil {
				w.Close()
				return eris.Wrapf(err, "report: write attribute %s", l.Columns[i].Name)
			}
		}
	}
	w.Close()

	// The writer names the attribute table "<base>dbf"; readers expect
	// "<base>.dbf".
	if _, err := os.Stat(base + "dbf"); err == nil {
		if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
			return eris.Wrap(err, "report: rename dbf")
		}
	}
	if err := os.WriteFile(base+".prj", []byte(wgs84PRJ), 0o644); err != nil {
		return eris.Wrap(err, "report: write prj")
	}
	return nil
}
