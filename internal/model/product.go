package model

// Stock status bands derived from minimum_stock.
const (
	StockLow    = "Low Stock"
	StockMedium = "Medium Stock"
	StockGood   = "Good Stock"
)

type Product struct {
	Base
	ProductName  string  `json:"product_name" validate:"required"`
	ProductCode  string  `json:"product_code" validate:"required"`
	Category     string  `json:"category"`
	SupplierID   *string `json:"supplier_id"`
	UnitPrice    float64 `json:"unit_price" validate:"gte=0"`
	CurrentStock int     `json:"current_stock"`
	MinimumStock int     `json:"minimum_stock" validate:"gte=0"`
	MaximumStock int     `json:"maximum_stock"`
	Unit         string  `json:"unit"`
	Status       string  `json:"status"`
	Description  string  `json:"description,omitempty"`
}

// ProductPatch updates a product. Nil fields keep their stored value.
type ProductPatch struct {
	ProductName  *string  `json:"product_name,omitempty"`
	ProductCode  *string  `json:"product_code,omitempty"`
	Category     *string  `json:"category,omitempty"`
	SupplierID   *string  `json:"supplier_id,omitempty"`
	UnitPrice    *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	CurrentStock *int     `json:"current_stock,omitempty"`
	MinimumStock *int     `json:"minimum_stock,omitempty"`
	MaximumStock *int     `json:"maximum_stock,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Description  *string  `json:"description,omitempty"`
}

// StockStatus classifies current stock against minimum stock: at or below
// minimum is low, at or below twice minimum is medium, above that is good.
func (p *Product) StockStatus() string {
	switch {
	case p.CurrentStock <= p.MinimumStock:
		return StockLow
	case p.CurrentStock <= p.MinimumStock*2:
		return StockMedium
	default:
		return StockGood
	}
}
