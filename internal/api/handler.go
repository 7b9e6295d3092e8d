package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/contriboard/contriboard/internal/domain"
	apperrors "github.com/contriboard/contriboard/internal/errors"
	"github.com/contriboard/contriboard/internal/query"
	"github.com/contriboard/contriboard/internal/storage"
)

// Handler handles API requests
type Handler struct {
	store    *storage.DocumentStore
	excluded []string
}

// NewHandler creates a new API handler. The excluded users are applied to
// every query on top of whatever the request asks to exclude.
func NewHandler(store *storage.DocumentStore, excludedUsers []string) *Handler {
	return &Handler{
		store:    store,
		excluded: excludedUsers,
	}
}

// engine loads the current summary document and wraps it for querying.
// Loading per request keeps the handler stateless; collect runs replace the
// document file underneath at any time.
func (h *Handler) engine() (*query.Engine, error) {
	doc, err := h.store.Load()
	if err != nil {
		return nil, err
	}
	return query.New(doc)
}

// GetLeaderboard returns the ranked contributors for the filtered period
// GET /api/v1/leaderboard
func (h *Handler) GetLeaderboard(c *gin.Context) {
	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	engine, err := h.engine()
	if err != nil {
		respondError(c, err)
		return
	}

	rows := engine.Rank(filters)
	if rows == nil {
		rows = []query.UserRow{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": rows,
	})
}

// GetTotals returns aggregate totals for the filtered period
// GET /api/v1/totals
func (h *Handler) GetTotals(c *gin.Context) {
	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	engine, err := h.engine()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": engine.Totals(filters),
	})
}

// GetTrend returns the top contributors' series over time. When no user
// qualifies the data field is null, which is distinct from a result with
// empty series.
// GET /api/v1/trend
func (h *Handler) GetTrend(c *gin.Context) {
	metric, ok := parseMetric(c)
	if !ok {
		return
	}

	engine, err := h.engine()
	if err != nil {
		respondError(c, err)
		return
	}

	res := engine.Trend(query.TrendOptions{
		Year:          c.DefaultQuery("year", query.All),
		Metric:        metric,
		TopN:          parseIntQuery(c, "top", query.DefaultTopN),
		ExcludedUsers: h.mergeExcluded(c),
	})

	c.JSON(http.StatusOK, gin.H{
		"data": res,
	})
}

// GetYears returns the years with recorded activity, newest first
// GET /api/v1/years
func (h *Handler) GetYears(c *gin.Context) {
	engine, err := h.engine()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": engine.AvailableYears(),
	})
}

// GetSummary returns the raw summary document
// GET /api/v1/summary
func (h *Handler) GetSummary(c *gin.Context) {
	doc, err := h.store.Load()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": doc,
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// parseFilters reads the common filter parameters. A bad metric name has
// already been answered with a 400 when ok is false.
func (h *Handler) parseFilters(c *gin.Context) (query.Filters, bool) {
	metric, ok := parseMetric(c)
	if !ok {
		return query.Filters{}, false
	}

	return query.Filters{
		Year:          c.DefaultQuery("year", query.All),
		Month:         c.DefaultQuery("month", query.All),
		Metric:        metric,
		ExcludedUsers: h.mergeExcluded(c),
	}, true
}

// parseMetric reads the metric parameter, answering 400 for unknown names
func parseMetric(c *gin.Context) (domain.MetricKind, bool) {
	raw := c.Query("metric")
	if raw == "" {
		return domain.MetricPullRequests, true
	}

	metric, ok := domain.ParseMetricKind(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_METRIC",
				"message": "metric must be one of: commits, pullRequests, codeReviews",
			},
		})
		return "", false
	}
	return metric, true
}

// mergeExcluded combines the configured exclusion set with the request's
// exclude parameter
func (h *Handler) mergeExcluded(c *gin.Context) []string {
	excluded := append([]string(nil), h.excluded...)
	for _, username := range strings.Split(c.Query("exclude"), ",") {
		if username = strings.TrimSpace(username); username != "" {
			excluded = append(excluded, username)
		}
	}
	return excluded
}

// parseIntQuery parses an integer query parameter with a default value
func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound, apperrors.ErrCodeNoData:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeForbidden:
			status = http.StatusForbidden
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
