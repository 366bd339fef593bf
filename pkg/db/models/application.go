package models

import (
	"time"

	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

// Application is a tenant's request to lease a property. Approval links a lease.
type Application struct {
	ID              int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationDate time.Time               `gorm:"column:application_date;not null"`
	Status          enums.ApplicationStatus `gorm:"column:status;type:application_status;not null"`
	PropertyID      int64                   `gorm:"column:property_id;not null;index"`
	TenantCognitoID string                  `gorm:"column:tenant_cognito_id;not null;index"`
	Name            string                  `gorm:"column:name;not null"`
	Email           string                  `gorm:"column:email;not null"`
	PhoneNumber     string                  `gorm:"column:phone_number;not null"`
	Message         *string                 `gorm:"column:message"`
	LeaseID         *int64                  `gorm:"column:lease_id;uniqueIndex"`

	Tenant *Tenant `gorm:"foreignKey:TenantCognitoID;references:CognitoID"`
	Lease  *Lease  `gorm:"foreignKey:LeaseID"`
}
