package domain

import "time"

// MetricKind identifies one of the three tracked contribution metrics.
type MetricKind string

const (
	MetricCommits      MetricKind = "commits"
	MetricPullRequests MetricKind = "pullRequests"
	MetricCodeReviews  MetricKind = "codeReviews"
)

// ParseMetricKind maps a user-facing metric name to its MetricKind.
func ParseMetricKind(s string) (MetricKind, bool) {
	switch MetricKind(s) {
	case MetricCommits, MetricPullRequests, MetricCodeReviews:
		return MetricKind(s), true
	}
	return "", false
}

// PeriodBucket counts one user's events of one metric kind within one year.
// Total always equals the sum of the per-month counters; Record keeps the two
// in step.
type PeriodBucket struct {
	Total  int            `json:"total"`
	Months map[string]int `json:"months"`
}

// NewPeriodBucket returns an empty bucket ready to record into.
func NewPeriodBucket() *PeriodBucket {
	return &PeriodBucket{Months: make(map[string]int)}
}

// Record counts one event that happened in the given zero-padded month.
func (b *PeriodBucket) Record(month string) {
	b.Total++
	b.Months[month]++
}

// MonthCount returns the count for a zero-padded month key, 0 when absent.
func (b *PeriodBucket) MonthCount(month string) int {
	return b.Months[month]
}

// MetricSeries maps a four-digit year key to that year's period bucket.
type MetricSeries map[string]*PeriodBucket

// Record buckets a single event instant into the series, creating the year
// bucket on first use.
func (s MetricSeries) Record(t time.Time) {
	year, month := PeriodKeys(t)
	b := s[year]
	if b == nil {
		b = NewPeriodBucket()
		s[year] = b
	}
	b.Record(month)
}

// PeriodKeys derives the canonical year and zero-padded month keys for an
// event instant.
func PeriodKeys(t time.Time) (year, month string) {
	return t.Format("2006"), t.Format("01")
}

// UserSummary is the aggregated activity of a single GitHub login. All three
// metric series are present from the moment the user is created, regardless
// of which kind of event created it.
type UserSummary struct {
	Avatar       string       `json:"avatar"`
	Commits      MetricSeries `json:"commits"`
	PullRequests MetricSeries `json:"pullRequests"`
	CodeReviews  MetricSeries `json:"codeReviews"`
}

// NewUserSummary returns a summary with all three series initialized.
func NewUserSummary(avatar string) *UserSummary {
	return &UserSummary{
		Avatar:       avatar,
		Commits:      make(MetricSeries),
		PullRequests: make(MetricSeries),
		CodeReviews:  make(MetricSeries),
	}
}

// Series returns the series tracking the given metric kind.
func (u *UserSummary) Series(kind MetricKind) MetricSeries {
	switch kind {
	case MetricCommits:
		return u.Commits
	case MetricCodeReviews:
		return u.CodeReviews
	default:
		return u.PullRequests
	}
}

// SummaryDocument is the persisted aggregation result: one full run's
// per-user statistics plus the organizations it was built from. It is
// produced wholesale by the aggregator and read-only afterwards.
type SummaryDocument struct {
	LastUpdated   time.Time               `json:"lastUpdated"`
	Organizations []string                `json:"organizations"`
	Users         map[string]*UserSummary `json:"users"`
}

// Normalize replaces absent metric series with empty ones. Documents written
// before code reviews were tracked carry no codeReviews key; readers must
// treat that as an empty series rather than a missing one.
func (d *SummaryDocument) Normalize() {
	if d.Organizations == nil {
		d.Organizations = []string{}
	}
	if d.Users == nil {
		d.Users = make(map[string]*UserSummary)
	}
	for _, u := range d.Users {
		if u.Commits == nil {
			u.Commits = make(MetricSeries)
		}
		if u.PullRequests == nil {
			u.PullRequests = make(MetricSeries)
		}
		if u.CodeReviews == nil {
			u.CodeReviews = make(MetricSeries)
		}
	}
}
