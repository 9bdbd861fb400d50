package repository

import (
	"furniture-assistant/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultFurniture returns the built-in catalog served when no database is configured.
// The same rows are seeded into PostgreSQL by migration 00002.
func DefaultFurniture() []domain.FurnitureRecord {
	return []domain.FurnitureRecord{
		furniture("1", "Modern Minimalist Sofa", "Seating", 1299, 15, "4.8", 234, 156, "Modern"),
		furniture("2", "Scandinavian Coffee Table", "Tables", 399, 32, "4.6", 189, 298, "Scandinavian"),
		furniture("3", "Industrial Floor Lamp", "Lighting", 249, 48, "4.7", 156, 412, "Industrial"),
		furniture("4", "Velvet Accent Chair", "Seating", 599, 22, "4.9", 267, 189, "Contemporary"),
		furniture("5", "Wooden Dining Table", "Tables", 899, 8, "4.5", 145, 87, "Rustic"),
		furniture("6", "Pendant Light Fixture", "Lighting", 179, 56, "4.4", 98, 523, "Modern"),
		furniture("7", "Leather Recliner", "Seating", 1499, 5, "4.9", 312, 67, "Contemporary"),
		furniture("8", "Glass Side Table", "Tables", 299, 41, "4.3", 76, 234, "Modern"),
	}
}

func furniture(id, name, category string, price int64, stock int, rating string, reviews, sales int, style string) domain.FurnitureRecord {
	return domain.FurnitureRecord{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		Rating:   decimal.RequireFromString(rating),
		Reviews:  reviews,
		Sales:    sales,
		Style:    style,
	}
}
