package domain

import "time"

// Equipment is a rentable UAV.
type Equipment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Brand     string    `json:"brand" gorm:"size:100;not null;default:''"`
	Model     string    `json:"model" gorm:"size:100;not null;default:''"`
	Category  string    `json:"category" gorm:"size:100;not null;default:''"`
	Weight    float64   `json:"weight" gorm:"not null"`
	Rented    bool      `json:"rented" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Equipment) TableName() string { return "equipment" }

// EquipmentFilter narrows equipment listings. Empty fields are ignored, the rest
// combine with AND. Text fields and Weight match as case-insensitive substrings.
type EquipmentFilter struct {
	Brand    string `form:"brand"`
	Model    string `form:"model"`
	Category string `form:"category"`
	Weight   string `form:"weight"`
	Rented   *bool  `form:"rented"`
}
