package catalog

// EquipmentRequest is the body of create, full update and partial update.
// Rented is accepted for compatibility and ignored: only rentals change it.
type EquipmentRequest struct {
	Brand    *string  `json:"brand" form:"brand" validate:"omitempty,max=100"`
	Model    *string  `json:"model" form:"model" validate:"omitempty,max=100"`
	Category *string  `json:"category" form:"category" validate:"omitempty,max=100"`
	Weight   *float64 `json:"weight" form:"weight"`
	Rented   *bool    `json:"rented" form:"rented"`
}
