package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"furniture-assistant/internal/domain"
	"furniture-assistant/internal/repository"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCatalog struct {
	err error
}

func (c failingCatalog) List(ctx context.Context) ([]domain.FurnitureRecord, error) {
	return nil, c.err
}

func newAnalytics() AnalyticsService {
	return NewAnalyticsService(repository.NewStaticCatalog(repository.DefaultFurniture()), zap.NewNop())
}

func TestAnalyticsService_Dashboard(t *testing.T) {
	category := "Lighting"
	dashboard, err := newAnalytics().Dashboard(context.Background(), domain.ItemFilter{Category: &category})
	require.NoError(t, err)

	assert.Equal(t, 8, dashboard.KPIs.TotalItems)
	assert.Len(t, dashboard.CategoryStats, 3)
	assert.Len(t, dashboard.Items, 2)
	assert.Equal(t, []string{"Seating", "Tables", "Lighting"}, dashboard.Categories)
}

func TestAnalyticsService_RecordsServerTiming(t *testing.T) {
	timing := &servertiming.Header{}
	ctx := servertiming.NewContext(httptest.NewRequest("GET", "/", nil).Context(), timing)

	_, err := newAnalytics().Dashboard(ctx, domain.ItemFilter{})
	require.NoError(t, err)

	names := []string{}
	for _, m := range timing.Metrics {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"catalog", "aggregate"}, names)
}

func TestAnalyticsService_Item(t *testing.T) {
	svc := newAnalytics()

	item, err := svc.Item(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Industrial Floor Lamp", item.Name)

	_, err = svc.Item(context.Background(), "42")
	assert.ErrorIs(t, err, repository.ErrFurnitureNotFound)
}

func TestAnalyticsService_ItemsAndCategories(t *testing.T) {
	svc := newAnalytics()

	items, err := svc.Items(context.Background(), domain.ItemFilter{Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Industrial Floor Lamp", items[0].Name)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Seating", "Tables", "Lighting"}, categories)

	kpis, err := svc.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1966, kpis.TotalSales)
}

func TestAnalyticsService_PropagatesCatalogErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewAnalyticsService(failingCatalog{err: boom}, zap.NewNop())

	_, err := svc.Dashboard(context.Background(), domain.ItemFilter{})
	assert.ErrorIs(t, err, boom)

	_, err = svc.KPIs(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.Item(context.Background(), "1")
	assert.ErrorIs(t, err, boom)
}
