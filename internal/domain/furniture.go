package domain

import "github.com/shopspring/decimal"

// StockLevel classifies units on hand for the inventory table
type StockLevel string

const (
	StockLevelHigh   StockLevel = "high"
	StockLevelMedium StockLevel = "medium"
	StockLevelLow    StockLevel = "low"
)

// FurnitureRecord represents a furniture item in the catalog
type FurnitureRecord struct {
	ID       string          `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Category string          `json:"category" db:"category"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Stock    int             `json:"stock" db:"stock"`
	Rating   decimal.Decimal `json:"rating" db:"rating"`
	Reviews  int             `json:"reviews" db:"reviews"`
	Sales    int             `json:"sales" db:"sales"`
	Style    string          `json:"style" db:"style"`
}

// Revenue returns lifetime revenue for the record (price * sales)
func (r FurnitureRecord) Revenue() decimal.Decimal {
	return r.Price.Mul(decimal.NewFromInt(int64(r.Sales)))
}

// StockLevel buckets the stock count: more than 20 is high, more than 10 is medium
func (r FurnitureRecord) StockLevel() StockLevel {
	switch {
	case r.Stock > 20:
		return StockLevelHigh
	case r.Stock > 10:
		return StockLevelMedium
	default:
		return StockLevelLow
	}
}

// ItemFilter narrows the item table. A nil Category matches every category.
type ItemFilter struct {
	Search   string
	Category *string
}
