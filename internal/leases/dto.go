package leases

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/internal/properties"
	"github.com/angelmondragon/rentals-backend/pkg/db/models"
	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

type TenantSummary struct {
	ID          int64  `json:"id"`
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type LeaseDTO struct {
	ID              int64                   `json:"id"`
	StartDate       time.Time               `json:"startDate"`
	EndDate         time.Time               `json:"endDate"`
	Rent            decimal.Decimal         `json:"rent"`
	Deposit         decimal.Decimal         `json:"deposit"`
	PropertyID      int64                   `json:"propertyId"`
	TenantCognitoID string                  `json:"tenantCognitoId"`
	Tenant          *TenantSummary          `json:"tenant,omitempty"`
	Property        *properties.PropertyDTO `json:"property,omitempty"`
}

type PaymentDTO struct {
	ID            int64               `json:"id"`
	AmountDue     decimal.Decimal     `json:"amountDue"`
	AmountPaid    decimal.Decimal     `json:"amountPaid"`
	DueDate       time.Time           `json:"dueDate"`
	PaymentDate   *time.Time          `json:"paymentDate"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	LeaseID       int64               `json:"leaseId"`
}

// NextPaymentDate steps monthly from the lease start until it passes now.
func NextPaymentDate(start, now time.Time) time.Time {
	next := start
	for months := 1; !next.After(now); months++ {
		next = start.AddDate(0, months, 0)
	}
	return next
}

func SummarizeTenant(t *models.Tenant) *TenantSummary {
	if t == nil {
		return nil
	}
	return &TenantSummary{
		ID:          t.ID,
		CognitoID:   t.CognitoID,
		Name:        t.Name,
		Email:       t.Email,
		PhoneNumber: t.PhoneNumber,
	}
}

func toLeaseDTO(l models.Lease, property *properties.PropertyDTO) LeaseDTO {
	return LeaseDTO{
		ID:              l.ID,
		StartDate:       l.StartDate,
		EndDate:         l.EndDate,
		Rent:            l.Rent,
		Deposit:         l.Deposit,
		PropertyID:      l.PropertyID,
		TenantCognitoID: l.TenantCognitoID,
		Tenant:          SummarizeTenant(l.Tenant),
		Property:        property,
	}
}

func toPaymentDTO(p models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		AmountDue:     p.AmountDue,
		AmountPaid:    p.AmountPaid,
		DueDate:       p.DueDate,
		PaymentDate:   p.PaymentDate,
		PaymentStatus: p.PaymentStatus,
		LeaseID:       p.LeaseID,
	}
}
