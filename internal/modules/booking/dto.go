package booking

// RentRequest carries the rental period for rent and update.
type RentRequest struct {
	StartDate string `json:"start_date" form:"start_date"`
	EndDate   string `json:"end_date" form:"end_date"`
}

// ProfileQuery narrows the caller's active rentals.
type ProfileQuery struct {
	RentalStartDate string `form:"rental_start_date"`
	RentalEndDate   string `form:"rental_end_date"`
}

// AdminListQuery filters the administrator's rental listing.
type AdminListQuery struct {
	UserID      int64 `form:"user_id"`
	EquipmentID int64 `form:"equipment_id"`
	Active      *bool `form:"active"`
}
