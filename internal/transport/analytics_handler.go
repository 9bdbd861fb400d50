package transport

import (
	"errors"
	"net/http"

	"furniture-assistant/internal/domain"
	"furniture-assistant/internal/middleware"
	"furniture-assistant/internal/repository"
	"furniture-assistant/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemQuery holds the item table filter taken from the query string
type ItemQuery struct {
	Search   string `validate:"max=100"`
	Category string `validate:"max=100"`
}

// Filter converts the query to a domain filter; an empty category matches all
func (q ItemQuery) Filter() domain.ItemFilter {
	filter := domain.ItemFilter{Search: q.Search}
	if q.Category != "" {
		category := q.Category
		filter.Category = &category
	}
	return filter
}

// ItemView is a catalog record with its derived columns
type ItemView struct {
	domain.FurnitureRecord
	StockLevel domain.StockLevel `json:"stock_level"`
}

func newItemViews(records []domain.FurnitureRecord) []ItemView {
	views := make([]ItemView, 0, len(records))
	for _, r := range records {
		views = append(views, ItemView{FurnitureRecord: r, StockLevel: r.StockLevel()})
	}
	return views
}

// AnalyticsHandler handles HTTP requests for the catalog and the analytics dashboard
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes registers catalog and analytics routes. The analytics group is
// wrapped in protect when it is non-nil.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router, protect ...func(http.Handler) http.Handler) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/items", h.ListItems)
		r.Get("/items/{id}", h.GetItem)
		r.Get("/categories", h.ListCategories)
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(protect...)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/kpis", h.GetKPIs)
	})
}

// ListItems handles the filtered item table
func (h *AnalyticsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	items, err := h.analyticsService.Items(r.Context(), query.Filter())
	if err != nil {
		h.logger.Error("Failed to list items", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newItemViews(items))
}

// GetItem handles a single catalog record
func (h *AnalyticsHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.analyticsService.Item(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrFurnitureNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "furniture not found")
			return
		}
		h.logger.Error("Failed to get item", zap.String("id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ItemView{FurnitureRecord: *item, StockLevel: item.StockLevel()})
}

// ListCategories handles the distinct category list
func (h *AnalyticsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.analyticsService.Categories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// GetDashboard handles the full analytics view with conditional GET support
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	dashboard, err := h.analyticsService.Dashboard(r.Context(), query.Filter())
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	response := struct {
		domain.Dashboard
		Items []ItemView `json:"items"`
	}{
		Dashboard: dashboard,
		Items:     newItemViews(dashboard.Items),
	}

	if err := respondCacheable(w, r, response); err != nil {
		h.logger.Error("Failed to write dashboard", zap.Error(err))
	}
}

// GetKPIs handles the headline figures
func (h *AnalyticsHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.analyticsService.KPIs(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute KPIs", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute KPIs")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, kpis)
}

func (h *AnalyticsHandler) parseQuery(w http.ResponseWriter, r *http.Request) (ItemQuery, bool) {
	query := ItemQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	if err := middleware.ValidateRequest(query); err != nil {
		h.logger.Debug("Query validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return ItemQuery{}, false
	}
	return query, true
}
