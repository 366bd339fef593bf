package models

// Tenant rents properties. CognitoID is the subject of the identity token.
type Tenant struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CognitoID   string `gorm:"column:cognito_id;not null;uniqueIndex:tenants_cognito_id_key"`
	Name        string `gorm:"column:name;not null"`
	Email       string `gorm:"column:email;not null"`
	PhoneNumber string `gorm:"column:phone_number;not null"`
}

// TenantFavorite is a saved property.
type TenantFavorite struct {
	TenantID   int64 `gorm:"column:tenant_id;primaryKey"`
	PropertyID int64 `gorm:"column:property_id;primaryKey"`
}

// TenantResidence links a tenant to a property they currently live in.
type TenantResidence struct {
	TenantID   int64 `gorm:"column:tenant_id;primaryKey"`
	PropertyID int64 `gorm:"column:property_id;primaryKey"`
}
