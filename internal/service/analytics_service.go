package service

import (
	"context"
	"fmt"

	"furniture-assistant/internal/analytics"
	"furniture-assistant/internal/domain"
	"furniture-assistant/internal/repository"

	servertiming "github.com/mitchellh/go-server-timing"
	"go.uber.org/zap"
)

// AnalyticsService serves catalog and dashboard views over a CatalogSource
type AnalyticsService interface {
	Dashboard(ctx context.Context, filter domain.ItemFilter) (domain.Dashboard, error)
	KPIs(ctx context.Context) (domain.KPIs, error)
	Items(ctx context.Context, filter domain.ItemFilter) ([]domain.FurnitureRecord, error)
	Item(ctx context.Context, id string) (*domain.FurnitureRecord, error)
	Categories(ctx context.Context) ([]string, error)
}

type analyticsService struct {
	catalog repository.CatalogSource
	logger  *zap.Logger
}

// NewAnalyticsService creates a new instance of AnalyticsService
func NewAnalyticsService(catalog repository.CatalogSource, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		catalog: catalog,
		logger:  logger,
	}
}

// Dashboard loads the catalog and builds the full analytics view
func (s *analyticsService) Dashboard(ctx context.Context, filter domain.ItemFilter) (domain.Dashboard, error) {
	records, err := s.load(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	m := servertiming.FromContext(ctx).NewMetric("aggregate").WithDesc("Dashboard aggregation").Start()
	dashboard := analytics.BuildDashboard(records, filter)
	m.Stop()

	s.logger.Debug("Dashboard built",
		zap.Int("records", len(records)),
		zap.Int("items", len(dashboard.Items)),
	)

	return dashboard, nil
}

// KPIs computes headline figures over the whole catalog
func (s *analyticsService) KPIs(ctx context.Context) (domain.KPIs, error) {
	records, err := s.load(ctx)
	if err != nil {
		return domain.KPIs{}, err
	}
	return analytics.ComputeKPIs(records), nil
}

// Items returns the filtered item table
func (s *analyticsService) Items(ctx context.Context, filter domain.ItemFilter) ([]domain.FurnitureRecord, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Filter(records, filter), nil
}

// Item returns one record by ID or repository.ErrFurnitureNotFound
func (s *analyticsService) Item(ctx context.Context, id string) (*domain.FurnitureRecord, error) {
	if finder, ok := s.catalog.(repository.FurnitureRepository); ok {
		return finder.FindByID(ctx, id)
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, repository.ErrFurnitureNotFound
}

// Categories lists distinct categories in catalog order
func (s *analyticsService) Categories(ctx context.Context) ([]string, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Categories(records), nil
}

func (s *analyticsService) load(ctx context.Context) ([]domain.FurnitureRecord, error) {
	m := servertiming.FromContext(ctx).NewMetric("catalog").WithDesc("Catalog load").Start()
	defer m.Stop()

	records, err := s.catalog.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load catalog", zap.Error(err))
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return records, nil
}
