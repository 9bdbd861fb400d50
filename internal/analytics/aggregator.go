// Package analytics derives dashboard statistics from a catalog snapshot.
// Every function here is a pure projection: inputs are never mutated and
// the same records always produce the same result.
package analytics

import (
	"errors"
	"strings"

	"furniture-assistant/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCatalog = errors.New("catalog is empty")
)

// priceBuckets returns the fixed display partition, all counts zero
func priceBuckets() []domain.PriceBucket {
	fiveHundred, oneThousand := decimal.NewFromInt(500), decimal.NewFromInt(1000)
	return []domain.PriceBucket{
		{Label: "$0-500", Min: decimal.Zero, Max: &fiveHundred},
		{Label: "$500-1000", Min: fiveHundred, Max: &oneThousand},
		{Label: "$1000+", Min: oneThousand},
	}
}

// CategoryStats sums sales and revenue per category in first-seen order
func CategoryStats(records []domain.FurnitureRecord) []domain.CategoryAggregate {
	stats := []domain.CategoryAggregate{}
	index := make(map[string]int)

	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(stats)
			index[r.Category] = i
			stats = append(stats, domain.CategoryAggregate{Category: r.Category, Revenue: decimal.Zero})
		}
		stats[i].Count += r.Sales
		stats[i].Revenue = stats[i].Revenue.Add(r.Revenue())
	}

	return stats
}

// PriceDistribution counts records per price bucket. Bounds are inclusive-low.
func PriceDistribution(records []domain.FurnitureRecord) []domain.PriceBucket {
	buckets := priceBuckets()
	for _, r := range records {
		for i := range buckets {
			if buckets[i].Contains(r.Price) {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// Filter keeps records whose lower-cased name contains the lower-cased search
// term and whose category equals filter.Category when one is set.
func Filter(records []domain.FurnitureRecord, filter domain.ItemFilter) []domain.FurnitureRecord {
	term := strings.ToLower(filter.Search)

	items := []domain.FurnitureRecord{}
	for _, r := range records {
		if !strings.Contains(strings.ToLower(r.Name), term) {
			continue
		}
		if filter.Category != nil && r.Category != *filter.Category {
			continue
		}
		items = append(items, r)
	}
	return items
}

// Categories lists distinct categories in first-seen order
func Categories(records []domain.FurnitureRecord) []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		categories = append(categories, r.Category)
	}
	return categories
}

// AverageRating returns the mean rating rounded to one decimal place.
// It fails with ErrEmptyCatalog rather than dividing by zero.
func AverageRating(records []domain.FurnitureRecord) (decimal.Decimal, error) {
	if len(records) == 0 {
		return decimal.Zero, ErrEmptyCatalog
	}

	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Rating)
	}

	return sum.Div(decimal.NewFromInt(int64(len(records)))).Round(1), nil
}

// ComputeKPIs computes the headline figures over the whole catalog
func ComputeKPIs(records []domain.FurnitureRecord) domain.KPIs {
	kpis := domain.KPIs{
		TotalRevenue: decimal.Zero,
		TotalItems:   len(records),
	}

	for _, r := range records {
		kpis.TotalRevenue = kpis.TotalRevenue.Add(r.Revenue())
		kpis.TotalSales += r.Sales
	}

	if avg, err := AverageRating(records); err == nil {
		kpis.AvgRating = decimal.NewNullDecimal(avg)
	}

	return kpis
}

// BuildDashboard assembles the analytics view. Only Items honours the filter;
// KPIs and chart series always describe the full catalog.
func BuildDashboard(records []domain.FurnitureRecord, filter domain.ItemFilter) domain.Dashboard {
	return domain.Dashboard{
		KPIs:              ComputeKPIs(records),
		CategoryStats:     CategoryStats(records),
		PriceDistribution: PriceDistribution(records),
		Categories:        Categories(records),
		Items:             Filter(records, filter),
	}
}
