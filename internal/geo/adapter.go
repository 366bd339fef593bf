// Package geo isolates every PostGIS-specific SQL fragment behind a narrow
// spatial adapter so the rest of the code only deals in types.Coordinates.
package geo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rentals-backend/pkg/errors"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// Adapter converts between stored geometry and coordinates.
type Adapter interface {
	// PointToText returns the WKT of a location's stored point.
	PointToText(ctx context.Context, locationID int64) (string, error)
	// TextToPoint parses WKT as x=longitude, y=latitude.
	TextToPoint(wkt string) (types.Coordinates, error)
	// MakePoint builds the SQL expression that constructs a point.
	MakePoint(c types.Coordinates, srid int) clause.Expr
}

// Store is the adapter plus the one write that needs raw spatial SQL.
type Store interface {
	Adapter
	InsertLocation(ctx context.Context, tx *gorm.DB, loc *models.Location) error
}

// PostGIS implements Store on a PostGIS-enabled Postgres.
type PostGIS struct {
	db *gorm.DB
}

func NewPostGIS(db *gorm.DB) *PostGIS {
	return &PostGIS{db: db}
}

// PointToText is the adapter's single-row read of a location's point as WKT.
// Listing queries select the same expression through AsText inside their
// join instead of calling this per row.
func (p *PostGIS) PointToText(ctx context.Context, locationID int64) (string, error) {
	var rows []string
	err := p.db.WithContext(ctx).
		Raw(`SELECT ST_AsText(coordinates) FROM locations WHERE id = ?`, locationID).
		Scan(&rows).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read location point")
	}
	if len(rows) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	return rows[0], nil
}

func (p *PostGIS) TextToPoint(wkt string) (types.Coordinates, error) {
	return TextToPoint(wkt)
}

func (p *PostGIS) MakePoint(c types.Coordinates, srid int) clause.Expr {
	return MakePoint(c, srid)
}

// InsertLocation writes loc and sets its ID. The point is built from
// (longitude, latitude) with SRID 4326.
func (p *PostGIS) InsertLocation(ctx context.Context, tx *gorm.DB, loc *models.Location) error {
	if tx == nil {
		tx = p.db
	}
	var id int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO locations (address, city, state, country, postal_code, coordinates)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		loc.Address, loc.City, loc.State, loc.Country, loc.PostalCode,
		MakePoint(loc.Coordinates, types.SRID),
	).Scan(&id).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert location")
	}
	loc.ID = id
	return nil
}

// TextToPoint is the single WKT read path.
func TextToPoint(wkt string) (types.Coordinates, error) {
	c, err := types.ParseWKT(wkt)
	if err != nil {
		return types.Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode location point")
	}
	return c, nil
}

// MakePoint renders ST_SetSRID(ST_MakePoint(lon, lat), srid) with bound values.
func MakePoint(c types.Coordinates, srid int) clause.Expr {
	return gorm.Expr("ST_SetSRID(ST_MakePoint(?, ?), ?)", c.Longitude, c.Latitude, srid)
}

// AsText selects column as WKT. column must be a trusted identifier.
func AsText(column string) string {
	return fmt.Sprintf("ST_AsText(%s)", column)
}

// Within renders a radius predicate on a geography column. The radius is
// expressed in degrees (km / KmPerDegree) against the geometry cast, matching
// how listings have always been searched.
func Within(column string, center types.Coordinates, radiusKm float64) (string, []any) {
	sql := fmt.Sprintf("ST_DWithin(%s::geometry, ST_SetSRID(ST_MakePoint(?, ?), %d), ?)", column, types.SRID)
	return sql, []any{center.Longitude, center.Latitude, radiusKm / KmPerDegree}
}
