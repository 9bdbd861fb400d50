package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"furniture-assistant/internal/domain"
)

var (
	ErrFurnitureNotFound = errors.New("furniture not found")
)

// FurnitureRepository defines the interface for furniture data access
type FurnitureRepository interface {
	CatalogSource
	FindByID(ctx context.Context, id string) (*domain.FurnitureRecord, error)
}

type furnitureRepository struct {
	db *sql.DB
}

// NewFurnitureRepository creates a new instance of FurnitureRepository
func NewFurnitureRepository(db *sql.DB) FurnitureRepository {
	return &furnitureRepository{db: db}
}

// List retrieves the whole catalog in display order
func (r *furnitureRepository) List(ctx context.Context) ([]domain.FurnitureRecord, error) {
	query := `
		SELECT id, name, category, price, stock, rating, reviews, sales, style
		FROM furniture
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list furniture: %w", err)
	}
	defer rows.Close()

	records := []domain.FurnitureRecord{}
	for rows.Next() {
		var record domain.FurnitureRecord
		if err := scanFurniture(rows, &record); err != nil {
			return nil, fmt.Errorf("failed to scan furniture: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating furniture: %w", err)
	}

	return records, nil
}

// FindByID retrieves a furniture record by ID using parameterized queries
func (r *furnitureRepository) FindByID(ctx context.Context, id string) (*domain.FurnitureRecord, error) {
	query := `
		SELECT id, name, category, price, stock, rating, reviews, sales, style
		FROM furniture
		WHERE id = $1
	`

	record := &domain.FurnitureRecord{}
	err := scanFurniture(r.db.QueryRowContext(ctx, query, id), record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFurnitureNotFound
		}
		return nil, fmt.Errorf("failed to find furniture by ID: %w", err)
	}

	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFurniture(row rowScanner, record *domain.FurnitureRecord) error {
	return row.Scan(
		&record.ID,
		&record.Name,
		&record.Category,
		&record.Price,
		&record.Stock,
		&record.Rating,
		&record.Reviews,
		&record.Sales,
		&record.Style,
	)
}
