package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/commerce-directory/internal/apperr"
)

// Payment is one subscription payment of a business owner. The latest
// payment per owner is the one with the greatest PaymentDate.
type Payment struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	BusinessOwnerID uint            `json:"business_owner_id" gorm:"index;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	DurationMonths  int             `json:"duration_months" gorm:"not null"`
	PaymentDate     time.Time       `json:"payment_date" gorm:"index;not null"`
	ExpiryDate      time.Time       `json:"expiry_date" gorm:"index;not null"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentRequest is what an owner submits to create or renew a subscription
type PaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	DurationMonths int             `json:"duration_months" validate:"required,gt=0"`
}

// NewPayment builds a payment made at paidAt covering months calendar months.
func NewPayment(ownerID uint, amount decimal.Decimal, months int, paidAt time.Time) (*Payment, error) {
	const op = "model.NewPayment"
	switch {
	case ownerID == 0:
		return nil, apperr.Validation(op, "business_owner_id is required")
	case !amount.IsPositive():
		return nil, apperr.Validation(op, "amount must be greater than zero")
	case months <= 0:
		return nil, apperr.Validation(op, "duration_months must be greater than zero")
	}
	return &Payment{
		BusinessOwnerID: ownerID,
		Amount:          amount.Round(2),
		DurationMonths:  months,
		PaymentDate:     paidAt,
		ExpiryDate:      paidAt.AddDate(0, months, 0),
	}, nil
}

// Expired reports whether now is strictly after the expiry date.
func (p *Payment) Expired(now time.Time) bool {
	return now.After(p.ExpiryDate)
}
