package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rentals-backend/pkg/enums"
)

type Payment struct {
	ID            int64               `gorm:"column:id;primaryKey;autoIncrement"`
	AmountDue     decimal.Decimal     `gorm:"column:amount_due;type:numeric(12,2);not null"`
	AmountPaid    decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	DueDate       time.Time           `gorm:"column:due_date;not null"`
	PaymentDate   *time.Time          `gorm:"column:payment_date"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	LeaseID       int64               `gorm:"column:lease_id;not null;index"`
}
