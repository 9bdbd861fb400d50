package repository

import (
	"context"

	"furniture-assistant/internal/domain"
)

// CatalogSource provides read-only access to the furniture catalog.
// Implementations return a fresh slice on every call.
type CatalogSource interface {
	List(ctx context.Context) ([]domain.FurnitureRecord, error)
}

type staticCatalog struct {
	records []domain.FurnitureRecord
}

// NewStaticCatalog creates an in-memory CatalogSource over a fixed record set
func NewStaticCatalog(records []domain.FurnitureRecord) CatalogSource {
	return &staticCatalog{records: append([]domain.FurnitureRecord(nil), records...)}
}

// List returns a copy of the catalog in its original order
func (c *staticCatalog) List(ctx context.Context) ([]domain.FurnitureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.FurnitureRecord{}, c.records...), nil
}
