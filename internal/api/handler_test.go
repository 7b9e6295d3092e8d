package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contriboard/contriboard/internal/domain"
	"github.com/contriboard/contriboard/internal/query"
	"github.com/contriboard/contriboard/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter serves a fixed document with "bot" excluded by configuration.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := storage.NewDocumentStore(filepath.Join(t.TempDir(), "summary.json"))
	doc := &domain.SummaryDocument{
		LastUpdated:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Organizations: []string{"acme"},
		Users: map[string]*domain.UserSummary{
			"alice": {
				Avatar: "https://avatars.example/alice.png",
				Commits: domain.MetricSeries{
					"2024": {Total: 4, Months: map[string]int{"03": 4}},
				},
				PullRequests: domain.MetricSeries{
					"2024": {Total: 2, Months: map[string]int{"03": 2}},
				},
				CodeReviews: make(domain.MetricSeries),
			},
			"bob": {
				Avatar: "https://avatars.example/bob.png",
				Commits: domain.MetricSeries{
					"2023": {Total: 3, Months: map[string]int{"11": 3}},
					"2024": {Total: 5, Months: map[string]int{"01": 5}},
				},
				PullRequests: make(domain.MetricSeries),
				CodeReviews:  make(domain.MetricSeries),
			},
			"bot": {
				Avatar:  "https://avatars.example/bot.png",
				Commits: make(domain.MetricSeries),
				PullRequests: domain.MetricSeries{
					"2024": {Total: 7, Months: map[string]int{"02": 7}},
				},
				CodeReviews: make(domain.MetricSeries),
			},
		},
	}
	require.NoError(t, store.Save(doc))

	return SetupRoutes(NewHandler(store, []string{"bot"}))
}

func doRequest(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetLeaderboard(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/leaderboard?metric=commits&year=2024")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []query.UserRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "bob", resp.Data[0].Username)
	assert.Equal(t, 5, resp.Data[0].Value)
	assert.Equal(t, "alice", resp.Data[1].Username)
}

func TestGetLeaderboardDefaultMetric(t *testing.T) {
	// The configured exclusion hides bot even though it leads pullRequests.
	w := doRequest(t, newTestRouter(t), "/api/v1/leaderboard")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []query.UserRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "alice", resp.Data[0].Username)
	assert.Equal(t, 2, resp.Data[0].Value)
}

func TestGetLeaderboardExcludeParam(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/leaderboard?exclude=alice")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []query.UserRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestGetLeaderboardInvalidMetric(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/leaderboard?metric=velocity")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_METRIC")
}

func TestGetTotals(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/totals?metric=commits&year=2024")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data query.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.Data.Commits)
	assert.Equal(t, 2, resp.Data.PullRequests)
	assert.Equal(t, 2, resp.Data.Contributors)
}

func TestGetTrend(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/trend?metric=commits")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data *query.TrendResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, []string{"2023", "2024"}, resp.Data.Labels)
	require.Len(t, resp.Data.Series, 2)
	assert.Equal(t, "bob", resp.Data.Series[0].Label)
	assert.Equal(t, []int{3, 5}, resp.Data.Series[0].Points)
}

func TestGetTrendNoDataIsNull(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/trend?metric=commits&exclude=alice,bob")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null}`, w.Body.String())
}

func TestGetYears(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/years")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2024", "2023"}, resp.Data)
}

func TestGetSummary(t *testing.T) {
	w := doRequest(t, newTestRouter(t), "/api/v1/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data domain.SummaryDocument `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"acme"}, resp.Data.Organizations)
	assert.Len(t, resp.Data.Users, 3)
}

func TestMissingDocumentIs404(t *testing.T) {
	store := storage.NewDocumentStore(filepath.Join(t.TempDir(), "absent.json"))
	router := SetupRoutes(NewHandler(store, nil))

	for _, path := range []string{
		"/api/v1/leaderboard",
		"/api/v1/totals",
		"/api/v1/trend",
		"/api/v1/years",
		"/api/v1/summary",
	} {
		w := doRequest(t, router, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "NO_DATA", path)
	}
}
