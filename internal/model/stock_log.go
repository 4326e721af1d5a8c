package model

type TransactionType string

const (
	TxIn         TransactionType = "in"
	TxOut        TransactionType = "out"
	TxAdjustment TransactionType = "adjustment"
)

// StockLogEntry is one row of the stock ledger. Entries are append-only:
// written as a side effect of recording a movement and never updated or
// deleted afterwards.
type StockLogEntry struct {
	Base
	ProductID       string          `json:"product_id" validate:"required"`
	TransactionType TransactionType `json:"transaction_type" validate:"required,oneof=in out adjustment"`
	Quantity        int             `json:"quantity" validate:"required,gt=0"`
	PreviousStock   int             `json:"previous_stock"`
	NewStock        int             `json:"new_stock"`
	Reference       string          `json:"reference"`
	Reason          string          `json:"reason"`
	SupplierID      *string         `json:"supplier_id"`
	Notes           string          `json:"notes,omitempty"`
	UserID          string          `json:"user_id"`
}
