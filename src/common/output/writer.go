package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jack-barr3tt/odpt-stations/src/common/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const geoJSONExt = ".geojson"

type Mode int

const (
	ModeJSON Mode = iota
	ModeGeoJSON
)

func (m Mode) String() string {
	if m == ModeGeoJSON {
		return "geojson"
	}
	return "json"
}

// SelectMode picks GeoJSON when forced or when the output path ends in .geojson.
func SelectMode(forceGeoJSON bool, path string) Mode {
	if forceGeoJSON || strings.HasSuffix(strings.ToLower(path), geoJSONExt) {
		return ModeGeoJSON
	}
	return ModeJSON
}

// Encode renders v as UTF-8 JSON without HTML escaping, indented by two
// spaces when pretty is set.
func Encode(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Rendered is a fully encoded document ready to be written.
type Rendered struct {
	Mode    Mode
	Body    []byte
	Summary types.Summary
	// Features and Skipped are only set in GeoJSON mode.
	Features int
	Skipped  int
}

type Serializer struct {
	logger *zap.SugaredLogger
}

func NewSerializer(logger *zap.SugaredLogger) *Serializer {
	return &Serializer{logger: logger}
}

// Render encodes the stations in the requested mode.
func (s *Serializer) Render(mode Mode, summary types.Summary, stations []types.Station, pretty bool) (*Rendered, error) {
	out := &Rendered{Mode: mode, Summary: summary}

	if len(stations) > 0 && CountWithCoordinateFields(stations) == 0 {
		s.logger.Warnw("no station carries a recognised coordinate field; the upstream field names may have changed",
			"latitude_fields", LatitudeFields,
			"longitude_fields", LongitudeFields,
		)
	}

	var doc any
	switch mode {
	case ModeGeoJSON:
		result := BuildFeatureCollection(stations)
		out.Features = len(result.Collection.Features)
		out.Skipped = result.Skipped
		doc = result.Collection
	default:
		if stations == nil {
			stations = []types.Station{}
		}
		doc = types.StationsDocument{Summary: summary, Stations: stations}
	}

	body, err := Encode(doc, pretty)
	if err != nil {
		return nil, fmt.Errorf("encode %s output: %w", mode, err)
	}
	out.Body = body
	return out, nil
}

// WriteTo writes the document to w.
func (r *Rendered) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Body)
	return int64(n), err
}

// WriteFile creates or truncates path and writes the document to it.
func (r *Rendered) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := r.WriteTo(f); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// Emit writes to path, or to stdout when path is empty.
func (s *Serializer) Emit(r *Rendered, path string, stdout io.Writer) error {
	if path == "" {
		_, err := r.WriteTo(stdout)
		return err
	}

	if err := r.WriteFile(path); err != nil {
		return err
	}

	if r.Mode == ModeGeoJSON {
		s.logger.Infow("GeoJSON written", "path", path, "features", r.Features, "skipped", r.Skipped)
	} else {
		s.logger.Infow("Output written", "path", path)
	}
	return nil
}
