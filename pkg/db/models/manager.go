package models

// Manager lists properties. CognitoID is the subject of the identity token.
type Manager struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CognitoID   string `gorm:"column:cognito_id;not null;uniqueIndex:managers_cognito_id_key"`
	Name        string `gorm:"column:name;not null"`
	Email       string `gorm:"column:email;not null"`
	PhoneNumber string `gorm:"column:phone_number;not null"`
}
