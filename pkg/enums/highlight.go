package enums

// Highlight is a descriptive selling point shown on a listing.
type Highlight string

const (
	HighlightHighSpeedInternetAccess Highlight = "HighSpeedInternetAccess"
	HighlightWasherDryer             Highlight = "WasherDryer"
	HighlightAirConditioning         Highlight = "AirConditioning"
	HighlightHeating                 Highlight = "Heating"
	HighlightSmokeFree               Highlight = "SmokeFree"
	HighlightCableReady              Highlight = "CableReady"
	HighlightSatelliteTV             Highlight = "SatelliteTV"
	HighlightDoubleVanities          Highlight = "DoubleVanities"
	HighlightTubShower               Highlight = "TubShower"
	HighlightIntercom                Highlight = "Intercom"
	HighlightSprinklerSystem         Highlight = "SprinklerSystem"
	HighlightRecentlyRenovated       Highlight = "RecentlyRenovated"
	HighlightCloseToTransit          Highlight = "CloseToTransit"
	HighlightGreatView               Highlight = "GreatView"
	HighlightQuietNeighborhood       Highlight = "QuietNeighborhood"
)

var validHighlights = set[Highlight]{
	HighlightHighSpeedInternetAccess,
	HighlightWasherDryer,
	HighlightAirConditioning,
	HighlightHeating,
	HighlightSmokeFree,
	HighlightCableReady,
	HighlightSatelliteTV,
	HighlightDoubleVanities,
	HighlightTubShower,
	HighlightIntercom,
	HighlightSprinklerSystem,
	HighlightRecentlyRenovated,
	HighlightCloseToTransit,
	HighlightGreatView,
	HighlightQuietNeighborhood,
}

// IsValid reports whether the value is a known Highlight.
func (h Highlight) IsValid() bool {
	return validHighlights.has(h)
}

// ParseHighlight converts raw input into a Highlight.
func ParseHighlight(value string) (Highlight, error) {
	return validHighlights.parse("highlight", value)
}
