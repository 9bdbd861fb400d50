package domain

import "github.com/shopspring/decimal"

// CategoryAggregate holds sales totals for one category
type CategoryAggregate struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// PriceBucket counts records whose price falls in [Min, Max). A nil Max is unbounded.
type PriceBucket struct {
	Label string           `json:"range"`
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
	Count int              `json:"count"`
}

// Contains reports whether price falls inside the bucket
func (b PriceBucket) Contains(price decimal.Decimal) bool {
	if price.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || price.LessThan(*b.Max)
}

// KPIs are the headline figures of the dashboard, always computed over the full catalog
type KPIs struct {
	TotalRevenue decimal.Decimal     `json:"total_revenue"`
	TotalSales   int                 `json:"total_sales"`
	AvgRating    decimal.NullDecimal `json:"avg_rating"`
	TotalItems   int                 `json:"total_items"`
}

// Dashboard is the complete analytics view for one filter
type Dashboard struct {
	KPIs              KPIs                `json:"kpis"`
	CategoryStats     []CategoryAggregate `json:"category_stats"`
	PriceDistribution []PriceBucket       `json:"price_distribution"`
	Categories        []string            `json:"categories"`
	Items             []FurnitureRecord   `json:"items"`
}
