package enums

// PropertyType is the kind of dwelling a listing offers.
type PropertyType string

const (
	PropertyTypeRooms     PropertyType = "Rooms"
	PropertyTypeTinyhouse PropertyType = "Tinyhouse"
	PropertyTypeApartment PropertyType = "Apartment"
	PropertyTypeVilla     PropertyType = "Villa"
	PropertyTypeTownhouse PropertyType = "Townhouse"
	PropertyTypeCottage   PropertyType = "Cottage"
)

var validPropertyTypes = set[PropertyType]{
	PropertyTypeRooms,
	PropertyTypeTinyhouse,
	PropertyTypeApartment,
	PropertyTypeVilla,
	PropertyTypeTownhouse,
	PropertyTypeCottage,
}

// IsValid reports whether the value is a known PropertyType.
func (p PropertyType) IsValid() bool {
	return validPropertyTypes.has(p)
}

// ParsePropertyType converts raw input into a PropertyType.
func ParsePropertyType(value string) (PropertyType, error) {
	return validPropertyTypes.parse("property type", value)
}
