package types

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/encoding/wkt"
)

// SRID is the spatial reference used for every stored point (WGS84).
const SRID = 4326

// Coordinates is a WGS84 position. PostGIS orders points x=longitude, y=latitude
// and so does every conversion in this file.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// InRange reports whether both axes fall inside their geographic bounds.
func (c Coordinates) InRange() bool {
	return !math.IsNaN(c.Longitude) && !math.IsNaN(c.Latitude) &&
		c.Longitude >= -180 && c.Longitude <= 180 &&
		c.Latitude >= -90 && c.Latitude <= 90
}

// IsOrigin reports the (0,0) fallback used when geocoding produced nothing.
func (c Coordinates) IsOrigin() bool {
	return c.Longitude == 0 && c.Latitude == 0
}

// WKT renders POINT(lon lat).
func (c Coordinates) WKT() string {
	return wkt.MarshalString(c.Point())
}

// Value produces an EWKT literal so Postgres can cast it to geography.
func (c Coordinates) Value() (driver.Value, error) {
	return fmt.Sprintf("SRID=%d;%s", SRID, c.WKT()), nil
}

// Scan accepts WKT, EWKT or hex/binary EWKB as returned by PostGIS.
func (c *Coordinates) Scan(value any) error {
	if value == nil {
		*c = Coordinates{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("coordinates: unsupported scan type %T", value)
	}

	text := strings.TrimSpace(string(raw))
	upper := strings.ToUpper(text)
	if strings.HasPrefix(upper, "SRID=") || strings.HasPrefix(upper, "POINT") {
		parsed, err := ParseWKT(text)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	bin := raw
	if decoded, err := hex.DecodeString(text); err == nil {
		bin = decoded
	}
	geom, _, err := ewkb.Unmarshal(bin)
	if err != nil {
		return fmt.Errorf("coordinates: decoding ewkb: %w", err)
	}
	point, ok := geom.(orb.Point)
	if !ok {
		return fmt.Errorf("coordinates: expected point, got %s", geom.GeoJSONType())
	}
	*c = Coordinates{Longitude: point.Lon(), Latitude: point.Lat()}
	return nil
}

// ParseWKT reads "POINT(lon lat)", optionally prefixed with "SRID=n;".
func ParseWKT(raw string) (Coordinates, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToUpper(text), "SRID=") {
		idx := strings.Index(text, ";")
		if idx == -1 {
			return Coordinates{}, fmt.Errorf("coordinates: malformed ewkt %q", raw)
		}
		text = text[idx+1:]
	}

	point, err := wkt.UnmarshalPoint(text)
	if err != nil {
		return Coordinates{}, fmt.Errorf("coordinates: parsing wkt %q: %w", raw, err)
	}
	return Coordinates{Longitude: point.Lon(), Latitude: point.Lat()}, nil
}
