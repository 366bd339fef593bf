package enums

// Amenity is a filterable feature of a property.
type Amenity string

const (
	AmenityWasherDryer       Amenity = "WasherDryer"
	AmenityAirConditioning   Amenity = "AirConditioning"
	AmenityDishwasher        Amenity = "Dishwasher"
	AmenityHighSpeedInternet Amenity = "HighSpeedInternet"
	AmenityHardwoodFloors    Amenity = "HardwoodFloors"
	AmenityWalkInClosets     Amenity = "WalkInClosets"
	AmenityMicrowave         Amenity = "Microwave"
	AmenityRefrigerator      Amenity = "Refrigerator"
	AmenityPool              Amenity = "Pool"
	AmenityGym               Amenity = "Gym"
	AmenityParking           Amenity = "Parking"
	AmenityPetsAllowed       Amenity = "PetsAllowed"
	AmenityWiFi              Amenity = "WiFi"
)

var validAmenities = set[Amenity]{
	AmenityWasherDryer,
	AmenityAirConditioning,
	AmenityDishwasher,
	AmenityHighSpeedInternet,
	AmenityHardwoodFloors,
	AmenityWalkInClosets,
	AmenityMicrowave,
	AmenityRefrigerator,
	AmenityPool,
	AmenityGym,
	AmenityParking,
	AmenityPetsAllowed,
	AmenityWiFi,
}

// IsValid reports whether the value is a known Amenity.
func (a Amenity) IsValid() bool {
	return validAmenities.has(a)
}

// ParseAmenity converts raw input into a Amenity.
func ParseAmenity(value string) (Amenity, error) {
	return validAmenities.parse("amenity", value)
}
