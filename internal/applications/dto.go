package applications

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/internal/leases"
	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

// CreateInput is a tenant's application for a property.
type CreateInput struct {
	PropertyID  int64
	Name        string
	Email       string
	PhoneNumber string
	Message     string
}

// ListQuery mirrors the userType/userId query parameters. Empty fields
// default to the caller.
type ListQuery struct {
	UserType string
	UserID   string
}

type LeaseSummary struct {
	ID              int64           `json:"id"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	Rent            decimal.Decimal `json:"rent"`
	Deposit         decimal.Decimal `json:"deposit"`
	NextPaymentDate time.Time       `json:"nextPaymentDate"`
}

type ApplicationDTO struct {
	ID              int64                   `json:"id"`
	ApplicationDate time.Time               `json:"applicationDate"`
	Status          enums.ApplicationStatus `json:"status"`
	PropertyID      int64                   `json:"propertyId"`
	TenantCognitoID string                  `json:"tenantCognitoId"`
	Name            string                  `json:"name"`
	Email           string                  `json:"email"`
	PhoneNumber     string                  `json:"phoneNumber"`
	Message         *string                 `json:"message"`
	LeaseID         *int64                  `json:"leaseId"`
	Property        *properties.PropertyDTO `json:"property,omitempty"`
	Tenant          *leases.TenantSummary   `json:"tenant,omitempty"`
	Lease           *LeaseSummary           `json:"lease,omitempty"`
}

func toDTO(app models.Application, property *properties.PropertyDTO, now time.Time) ApplicationDTO {
	dto := ApplicationDTO{
		ID:              app.ID,
		ApplicationDate: app.ApplicationDate,
		Status:          app.Status,
		PropertyID:      app.PropertyID,
		TenantCognitoID: app.TenantCognitoID,
		Name:            app.Name,
		Email:           app.Email,
		PhoneNumber:     app.PhoneNumber,
		Message:         app.Message,
		LeaseID:         app.LeaseID,
		Property:        property,
		Tenant:          leases.SummarizeTenant(app.Tenant),
	}
	if l := app.Lease; l != nil {
		dto.Lease = &LeaseSummary{
			ID:              l.ID,
			StartDate:       l.StartDate,
			EndDate:         l.EndDate,
			Rent:            l.Rent,
			Deposit:         l.Deposit,
			NextPaymentDate: leases.NextPaymentDate(l.StartDate, now),
		}
	}
	return dto
}
