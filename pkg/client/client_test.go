package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, path string, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func TestGetLeaderboard(t *testing.T) {
	client := newTestServer(t, "/api/v1/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		assert.Equal(t, "commits", r.URL.Query().Get("metric"))
		assert.Equal(t, "bot,mirror", r.URL.Query().Get("exclude"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"username": "alice", "avatar": "https://example.com/alice.png", "value": 7, "commits": 7, "pullRequests": 2, "codeReviews": 0},
			{"username": "bob", "avatar": "", "value": 4, "commits": 4, "pullRequests": 0, "codeReviews": 1}
		]}`))
	})

	rows, err := client.GetLeaderboard("2024", "", "commits", []string{"bot", "mirror"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, 7, rows[0].Value)
	assert.Equal(t, "bob", rows[1].Username)
	assert.Equal(t, 1, rows[1].CodeReviews)
}

func TestGetTotals(t *testing.T) {
	client := newTestServer(t, "/api/v1/totals", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "03", r.URL.Query().Get("month"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"commits": 12, "pullRequests": 5, "codeReviews": 3, "contributors": 2}}`))
	})

	totals, err := client.GetTotals("2024", "03", "", nil)
	require.NoError(t, err)
	require.NotNil(t, totals)
	assert.Equal(t, 12, totals.Commits)
	assert.Equal(t, 2, totals.Contributors)
}

func TestGetTrend(t *testing.T) {
	client := newTestServer(t, "/api/v1/trend", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("top"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"labels": ["2023", "2024"], "series": [{"label": "alice", "points": [3, 7]}]}}`))
	})

	res, err := client.GetTrend("all", "commits", 5, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"2023", "2024"}, res.Labels)
	require.Len(t, res.Series, 1)
	assert.Equal(t, []int{3, 7}, res.Series[0].Points)
}

func TestGetTrendNull(t *testing.T) {
	client := newTestServer(t, "/api/v1/trend", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": null}`))
	})

	res, err := client.GetTrend("all", "", 0, nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestGetYears(t *testing.T) {
	client := newTestServer(t, "/api/v1/years", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": ["2024", "2023", "2021"]}`))
	})

	years, err := client.GetYears()
	require.NoError(t, err)
	assert.Equal(t, []string{"2024", "2023", "2021"}, years)
}

func TestGetSummaryNormalizesMissingSeries(t *testing.T) {
	client := newTestServer(t, "/api/v1/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {
			"lastUpdated": "2024-06-01T12:00:00Z",
			"organizations": ["acme"],
			"users": {
				"alice": {
					"avatar": "",
					"commits": {"2024": {"total": 1, "months": {"05": 1}}},
					"pullRequests": {}
				}
			}
		}}`))
	})

	doc, err := client.GetSummary()
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), doc.LastUpdated)

	alice := doc.Users["alice"]
	require.NotNil(t, alice)
	require.NotNil(t, alice.CodeReviews)
	assert.Empty(t, alice.CodeReviews)
}

func TestHealthCheck(t *testing.T) {
	client := newTestServer(t, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	assert.NoError(t, client.HealthCheck())
}

func TestErrorStatus(t *testing.T) {
	client := newTestServer(t, "/api/v1/years", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": "NO_DATA", "message": "summary document has not been built yet"}}`))
	})

	_, err := client.GetYears()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "NO_DATA")
}
