package tenants

import "github.com/angelmondragon/rentals-backend/pkg/db/models"

// Contact holds the editable fields of a tenant profile.
type Contact struct {
	Name        string
	Email       string
	PhoneNumber string
}

// TenantDTO carries the ids of the tenant's favorite properties so clients
// can pass them straight back as the favoriteIds search filter.
type TenantDTO struct {
	ID          int64   `json:"id"`
	CognitoID   string  `json:"cognitoId"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	FavoriteIDs []int64 `json:"favoriteIds"`
}

func toDTO(t *models.Tenant, favorites []int64) *TenantDTO {
	if favorites == nil {
		favorites = []int64{}
	}
	return &TenantDTO{
		ID:          t.ID,
		CognitoID:   t.CognitoID,
		Name:        t.Name,
		Email:       t.Email,
		PhoneNumber: t.PhoneNumber,
		FavoriteIDs: favorites,
	}
}
