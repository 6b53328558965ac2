package model

import (
	"time"

	"gorm.io/gorm"
)

// Commerce represents a shop listed in the directory
type Commerce struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Commercename    string         `json:"commercename" gorm:"type:varchar(150);not null;index"`
	Services        string         `json:"services" gorm:"type:text"`
	ImageCommerce   string         `json:"image_commerce" gorm:"type:varchar(255)"`
	VilleID         uint           `json:"ville_id" gorm:"index;not null"`
	BusinessOwnerID uint           `json:"business_owner_id" gorm:"index;not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	BusinessOwner *BusinessOwner `json:"business_owners,omitempty" gorm:"foreignKey:BusinessOwnerID"`
	Ville         *Ville         `json:"ville,omitempty" gorm:"foreignKey:VilleID"`

	// VilleName is filled from Ville when the ville is loaded
	VilleName string `json:"villeName,omitempty" gorm:"-"`
}

// FillVilleName copies the joined ville name onto VilleName.
func (c *Commerce) FillVilleName() {
	if c.Ville != nil {
		c.VilleName = c.Ville.Villename
	}
}

// CommerceInput is the payload required to create a commerce
type CommerceInput struct {
	Commercename    string `json:"commercename" validate:"required"`
	Services        string `json:"services" validate:"required"`
	ImageCommerce   string `json:"image_commerce"`
	VilleID         uint   `json:"ville_id" validate:"required"`
	BusinessOwnerID uint   `json:"business_owner_id" validate:"required"`
}

// NewCommerce builds a Commerce from in, rejecting missing required fields.
func NewCommerce(in CommerceInput) (*Commerce, error) {
	if err := validateStruct("model.NewCommerce", in); err != nil {
		return nil, err
	}
	return &Commerce{
		Commercename:    in.Commercename,
		Services:        in.Services,
		ImageCommerce:   in.ImageCommerce,
		VilleID:         in.VilleID,
		BusinessOwnerID: in.BusinessOwnerID,
	}, nil
}

// CommerceUpdate carries the editable fields of an existing commerce
type CommerceUpdate struct {
	ID            uint   `json:"id" validate:"required"`
	Commercename  string `json:"commercename" validate:"required"`
	Services      string `json:"services" validate:"required"`
	ImageCommerce string `json:"image_commerce"`
	VilleID       uint   `json:"ville_id" validate:"required"`
}

// Validate reports a ValidationFailed error if id, commercename, services or
// ville_id is missing.
func (u CommerceUpdate) Validate() error {
	return validateStruct("model.CommerceUpdate", u)
}
