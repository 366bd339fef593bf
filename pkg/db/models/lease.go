package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Lease struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	StartDate       time.Time       `gorm:"column:start_date;not null"`
	EndDate         time.Time       `gorm:"column:end_date;not null"`
	Rent            decimal.Decimal `gorm:"column:rent;type:numeric(12,2);not null"`
	Deposit         decimal.Decimal `gorm:"column:deposit;type:numeric(12,2);not null"`
	PropertyID      int64           `gorm:"column:property_id;not null;index"`
	TenantCognitoID string          `gorm:"column:tenant_cognito_id;not null;index"`

	Tenant *Tenant `gorm:"foreignKey:TenantCognitoID;references:CognitoID"`
}
