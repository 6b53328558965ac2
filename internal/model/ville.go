package model

// Ville is a city reference row
type Ville struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Villename string `json:"villename" gorm:"type:varchar(100);uniqueIndex;not null"`
}
