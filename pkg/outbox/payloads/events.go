package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

// PropertyCreatedEvent announces a new listing.
type PropertyCreatedEvent struct {
	PropertyID       int64              `json:"property_id"`
	ManagerCognitoID string             `json:"manager_cognito_id"`
	PropertyType     enums.PropertyType `json:"property_type"`
	City             string             `json:"city"`
	Country          string             `json:"country"`
	GeocodeStatus    string             `json:"geocode_status"`
}

// ApplicationSubmittedEvent tells the owning manager about a new application.
type ApplicationSubmittedEvent struct {
	ApplicationID    int64  `json:"application_id"`
	PropertyID       int64  `json:"property_id"`
	TenantCognitoID  string `json:"tenant_cognito_id"`
	ManagerCognitoID string `json:"manager_cognito_id"`
}

// ApplicationStatusChangedEvent is emitted when a manager decides an application.
type ApplicationStatusChangedEvent struct {
	ApplicationID   int64                   `json:"application_id"`
	PropertyID      int64                   `json:"property_id"`
	TenantCognitoID string                  `json:"tenant_cognito_id"`
	From            enums.ApplicationStatus `json:"from"`
	To              enums.ApplicationStatus `json:"to"`
	LeaseID         *int64                  `json:"lease_id,omitempty"`
}

// LeaseCreatedEvent follows an approval.
type LeaseCreatedEvent struct {
	LeaseID         int64           `json:"lease_id"`
	PropertyID      int64           `json:"property_id"`
	TenantCognitoID string          `json:"tenant_cognito_id"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Rent            decimal.Decimal `json:"rent"`
	Deposit         decimal.Decimal `json:"deposit"`
}
