package properties

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/angelmondragon/rentals-backend/internal/geo"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
	"github.com/angelmondragon/rentals-backend/pkg/search"
	"github.com/angelmondragon/rentals-backend/pkg/types"
)

// Kind tags a predicate with the filter that produced it.
type Kind string

const (
	KindIDIn              Kind = "id_in"
	KindNoMatch           Kind = "no_match"
	KindPriceMin          Kind = "price_min"
	KindPriceMax          Kind = "price_max"
	KindBedsMin           Kind = "beds_min"
	KindBathsMin          Kind = "baths_min"
	KindSquareFeetMin     Kind = "square_feet_min"
	KindSquareFeetMax     Kind = "square_feet_max"
	KindPropertyType      Kind = "property_type"
	KindAmenitiesSuperset Kind = "amenities_superset"
	KindLeaseStartsBy     Kind = "lease_starts_by"
	KindWithinRadius      Kind = "within_radius"
	KindManager           Kind = "manager"
	KindResidentTenant    Kind = "resident_tenant"
	KindID                Kind = "id"
)

// Predicate is one bound condition over the properties p / locations l join.
// SQL only ever contains placeholders; values travel in Args.
type Predicate struct {
	Kind Kind
	SQL  string
	Args []any
}

func IDIn(ids []int64) Predicate {
	if len(ids) == 0 {
		return NoMatch()
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return Predicate{Kind: KindIDIn, SQL: "p.id IN (" + placeholders + ")", Args: args}
}

// NoMatch excludes every row; an explicitly empty id set yields it.
func NoMatch() Predicate {
	return Predicate{Kind: KindNoMatch, SQL: "1 = 0"}
}

func PriceMin(v float64) Predicate {
	return Predicate{Kind: KindPriceMin, SQL: "p.price_per_month >= ?", Args: []any{v}}
}

func PriceMax(v float64) Predicate {
	return Predicate{Kind: KindPriceMax, SQL: "p.price_per_month <= ?", Args: []any{v}}
}

func BedsMin(v int) Predicate {
	return Predicate{Kind: KindBedsMin, SQL: "p.beds >= ?", Args: []any{v}}
}

func BathsMin(v float64) Predicate {
	return Predicate{Kind: KindBathsMin, SQL: "p.baths >= ?", Args: []any{v}}
}

func SquareFeetMin(v float64) Predicate {
	return Predicate{Kind: KindSquareFeetMin, SQL: "p.square_feet >= ?", Args: []any{v}}
}

func SquareFeetMax(v float64) Predicate {
	return Predicate{Kind: KindSquareFeetMax, SQL: "p.square_feet <= ?", Args: []any{v}}
}

func PropertyTypeIs(t enums.PropertyType) Predicate {
	return Predicate{Kind: KindPropertyType, SQL: "p.property_type = ?::property_type", Args: []any{string(t)}}
}

// AmenitiesSuperset binds the whole set as one text[] value.
func AmenitiesSuperset(amenities []string) Predicate {
	return Predicate{Kind: KindAmenitiesSuperset, SQL: "p.amenities @> ?::text[]", Args: []any{pq.StringArray(amenities)}}
}

// LeaseStartsBy keeps properties with a lease starting on or before at.
func LeaseStartsBy(at time.Time) Predicate {
	return Predicate{
		Kind: KindLeaseStartsBy,
		SQL:  "EXISTS (SELECT 1 FROM leases le WHERE le.property_id = p.id AND le.start_date <= ?)",
		Args: []any{at},
	}
}

func WithinRadius(center types.Coordinates, radiusKm float64) Predicate {
	sql, args := geo.Within("l.coordinates", center, radiusKm)
	return Predicate{Kind: KindWithinRadius, SQL: sql, Args: args}
}

func ManagedBy(cognitoID string) Predicate {
	return Predicate{Kind: KindManager, SQL: "p.manager_cognito_id = ?", Args: []any{cognitoID}}
}

func ResidenceOf(tenantCognitoID string) Predicate {
	return Predicate{
		Kind: KindResidentTenant,
		SQL: "p.id IN (SELECT tr.property_id FROM tenant_residences tr " +
			"JOIN tenants t ON t.id = tr.tenant_id WHERE t.cognito_id = ?)",
		Args: []any{tenantCognitoID},
	}
}

func IDIs(id int64) Predicate {
	return Predicate{Kind: KindID, SQL: "p.id = ?", Args: []any{id}}
}

// BuildPredicates turns parsed search parameters into predicates, in a fixed
// order. Absent parameters contribute nothing.
func BuildPredicates(p search.Params) []Predicate {
	var preds []Predicate

	if p.FavoriteIDs != nil {
		preds = append(preds, IDIn(p.FavoriteIDs))
	}
	if p.PriceMin != nil {
		preds = append(preds, PriceMin(*p.PriceMin))
	}
	if p.PriceMax != nil {
		preds = append(preds, PriceMax(*p.PriceMax))
	}
	if p.BedsMin != nil {
		preds = append(preds, BedsMin(*p.BedsMin))
	}
	if p.BathsMin != nil {
		preds = append(preds, BathsMin(*p.BathsMin))
	}
	if p.SquareFeetMin != nil {
		preds = append(preds, SquareFeetMin(*p.SquareFeetMin))
	}
	if p.SquareFeetMax != nil {
		preds = append(preds, SquareFeetMax(*p.SquareFeetMax))
	}
	if p.PropertyType != nil {
		preds = append(preds, PropertyTypeIs(*p.PropertyType))
	}
	if len(p.Amenities) > 0 {
		preds = append(preds, AmenitiesSuperset(p.Amenities))
	}
	if p.AvailableFrom != nil {
		preds = append(preds, LeaseStartsBy(*p.AvailableFrom))
	}
	if p.Near != nil {
		preds = append(preds, WithinRadius(*p.Near, geo.SearchRadiusKm))
	}

	return preds
}

// Render ANDs the predicates. An empty list renders to "" with no args.
func Render(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(preds))
	var args []any
	for _, pred := range preds {
		clauses = append(clauses, "("+pred.SQL+")")
		args = append(args, pred.Args...)
	}
	return strings.Join(clauses, " AND "), args
}
