package model

type Supplier struct {
	Base
	SupplierName  string  `json:"supplier_name" validate:"required"`
	ContactPerson string  `json:"contact_person"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	Website       *string `json:"website"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes,omitempty"`
}

// SupplierPatch updates a supplier. Nil fields keep their stored value.
type SupplierPatch struct {
	SupplierName  *string `json:"supplier_name,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	Website       *string `json:"website,omitempty"`
	Status        *string `json:"status,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}
