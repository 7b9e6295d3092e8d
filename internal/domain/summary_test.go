package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricSeriesRecord(t *testing.T) {
	s := make(MetricSeries)

	s.Record(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	s.Record(time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC))
	s.Record(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC))
	s.Record(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC))

	require.Contains(t, s, "2024")
	require.Contains(t, s, "2023")

	assert.Equal(t, 3, s["2024"].Total)
	assert.Equal(t, 2, s["2024"].MonthCount("03"))
	assert.Equal(t, 1, s["2024"].MonthCount("11"))
	assert.Equal(t, 0, s["2024"].MonthCount("07"))
	assert.Equal(t, 1, s["2023"].Total)
	assert.Equal(t, 1, s["2023"].MonthCount("01"))

	// The running total must match the month counters after every increment.
	for year, bucket := range s {
		sum := 0
		for _, n := range bucket.Months {
			sum += n
		}
		assert.Equal(t, bucket.Total, sum, "bucket %s out of step", year)
	}
}

func TestPeriodKeysZeroPadding(t *testing.T) {
	year, month := PeriodKeys(time.Date(2022, 1, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2022", year)
	assert.Equal(t, "01", month)

	_, month = PeriodKeys(time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "12", month)
}

func TestSummaryDocumentWireFormat(t *testing.T) {
	doc := &SummaryDocument{
		LastUpdated:   time.Date(2024, 4, 1, 12, 30, 0, 0, time.UTC),
		Organizations: []string{"acme", "acme-labs"},
		Users: map[string]*UserSummary{
			"alice": {
				Avatar: "https://avatars.example/alice.png",
				Commits: MetricSeries{
					"2024": &PeriodBucket{Total: 2, Months: map[string]int{"03": 2}},
				},
				PullRequests: make(MetricSeries),
				CodeReviews:  make(MetricSeries),
			},
		},
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	expected := `{"lastUpdated":"2024-04-01T12:30:00Z",` +
		`"organizations":["acme","acme-labs"],` +
		`"users":{"alice":{"avatar":"https://avatars.example/alice.png",` +
		`"commits":{"2024":{"total":2,"months":{"03":2}}},` +
		`"pullRequests":{},"codeReviews":{}}}}`
	assert.JSONEq(t, expected, string(raw))
}

func TestSummaryDocumentNormalizeMissingReviews(t *testing.T) {
	// A document written before reviews were tracked has no codeReviews key.
	raw := `{
		"lastUpdated": "2023-01-01T00:00:00Z",
		"organizations": ["acme"],
		"users": {
			"bob": {
				"avatar": "https://avatars.example/bob.png",
				"commits": {"2022": {"total": 1, "months": {"05": 1}}},
				"pullRequests": {}
			}
		}
	}`

	var doc SummaryDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	doc.Normalize()

	bob := doc.Users["bob"]
	require.NotNil(t, bob)
	assert.NotNil(t, bob.CodeReviews)
	assert.Empty(t, bob.CodeReviews)
	assert.Equal(t, 1, bob.Commits["2022"].Total)
}

func TestEventMetricRouting(t *testing.T) {
	cases := []struct {
		eventType EventType
		want      MetricKind
	}{
		{EventTypeCommit, MetricCommits},
		{EventTypePullRequest, MetricPullRequests},
		{EventTypeReview, MetricCodeReviews},
	}
	for _, tc := range cases {
		e := &Event{Type: tc.eventType}
		assert.Equal(t, tc.want, e.Metric())
	}
}

func TestParseMetricKind(t *testing.T) {
	kind, ok := ParseMetricKind("codeReviews")
	require.True(t, ok)
	assert.Equal(t, MetricCodeReviews, kind)

	_, ok = ParseMetricKind("deployments")
	assert.False(t, ok)
}
