package model

import (
	"time"
)

// BusinessOwner represents an owner of one or more commerces. A commerce is
// listed only while its owner's MonthlyFeePaid flag is set.
type BusinessOwner struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Email          string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"type:varchar(255)"`
	Name           string    `json:"name" gorm:"type:varchar(100)"`
	Adresse        string    `json:"adresse" gorm:"type:varchar(255)"`
	Telephone1     string    `json:"telephone1" gorm:"type:varchar(30)"`
	Telephone2     string    `json:"telephone2" gorm:"type:varchar(30)"`
	MonthlyFeePaid bool      `json:"monthly_fee_paid" gorm:"index;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
