package managers

import "github.com/angelmondragon/rentals-backend/pkg/db/models"

// Contact holds the editable fields of a manager profile.
type Contact struct {
	Name        string
	Email       string
	PhoneNumber string
}

type ManagerDTO struct {
	ID          int64  `json:"id"`
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func toDTO(m *models.Manager) *ManagerDTO {
	return &ManagerDTO{
		ID:          m.ID,
		CognitoID:   m.CognitoID,
		Name:        m.Name,
		Email:       m.Email,
		PhoneNumber: m.PhoneNumber,
	}
}
