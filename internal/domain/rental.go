package domain

import "time"

type Rental struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	UserID      int64      `json:"user" gorm:"not null;index"`
	EquipmentID int64      `json:"equipment" gorm:"not null;index"`
	RentalStart *time.Time `json:"rental_start"`
	RentalEnd   *time.Time `json:"rental_end"`
	Active      bool       `json:"active" gorm:"not null;index"`
	ReturnedAt  *time.Time `json:"returned_at"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`

	User      *User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Equipment *Equipment `json:"-" gorm:"foreignKey:EquipmentID;constraint:OnDelete:CASCADE"`
}

// RentalFilter narrows a user's active rentals.
type RentalFilter struct {
	StartAfter *time.Time // rental_start >= StartAfter
	EndBefore  *time.Time // rental_end <= EndBefore
}

// RentalListFilter is the administrator's view over all rentals.
type RentalListFilter struct {
	UserID      int64
	EquipmentID int64
	Active      *bool
}
