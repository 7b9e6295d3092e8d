package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/contriboard/contriboard/internal/domain"
	"github.com/contriboard/contriboard/internal/errors"
)

// All selects every year or every month instead of a single period.
const All = "all"

// DefaultTopN bounds trend series when the caller gives no limit.
const DefaultTopN = 10

// Engine answers ranking, totals and trend queries over one summary
// document. The document is read-only; methods are safe for concurrent use.
type Engine struct {
	doc *domain.SummaryDocument
	now func() time.Time
}

// New wraps a summary document for querying. A nil document yields the
// typed no-data error.
func New(doc *domain.SummaryDocument) (*Engine, error) {
	if doc == nil {
		return nil, errors.NewNoDataError("no summary document loaded")
	}
	return &Engine{doc: doc, now: time.Now}, nil
}

// Filters narrows a ranking or totals query. Zero values select the
// defaults: all years, all months, the pullRequests metric.
type Filters struct {
	Year          string
	Month         string
	Metric        domain.MetricKind
	ExcludedUsers []string
}

func (f Filters) normalized() Filters {
	if f.Year == "" {
		f.Year = All
	}
	if f.Month == "" {
		f.Month = All
	}
	if f.Metric == "" {
		f.Metric = domain.MetricPullRequests
	}
	return f
}

// UserRow is one leaderboard entry. Value carries the count for the metric
// the ranking was requested on; the three per-kind fields carry the same
// user's counts under the identical year and month filter.
type UserRow struct {
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	Value        int    `json:"value"`
	Commits      int    `json:"commits"`
	PullRequests int    `json:"pullRequests"`
	CodeReviews  int    `json:"codeReviews"`
}

// Summary is the aggregate over every ranked row of a query.
type Summary struct {
	Commits      int `json:"commits"`
	PullRequests int `json:"pullRequests"`
	CodeReviews  int `json:"codeReviews"`
	Contributors int `json:"contributors"`
}

// Rank returns the leaderboard for the filtered period, sorted by value
// descending with ties broken by username ascending. Users whose value is
// zero and users on the exclusion list are omitted.
func (e *Engine) Rank(f Filters) []UserRow {
	f = f.normalized()
	excluded := make(map[string]struct{}, len(f.ExcludedUsers))
	for _, username := range f.ExcludedUsers {
		excluded[username] = struct{}{}
	}

	var rows []UserRow
	for username, user := range e.doc.Users {
		if _, skip := excluded[username]; skip {
			continue
		}
		value := seriesValue(user.Series(f.Metric), f.Year, f.Month)
		if value == 0 {
			continue
		}
		rows = append(rows, UserRow{
			Username:     username,
			Avatar:       user.Avatar,
			Value:        value,
			Commits:      seriesValue(user.Commits, f.Year, f.Month),
			PullRequests: seriesValue(user.PullRequests, f.Year, f.Month),
			CodeReviews:  seriesValue(user.CodeReviews, f.Year, f.Month),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Username < rows[j].Username
	})
	return rows
}

// Totals sums the ranked rows for the filtered period. Contributors counts
// the rows, so it honors the same zero-suppression and exclusions as Rank.
func (e *Engine) Totals(f Filters) Summary {
	var out Summary
	for _, row := range e.Rank(f) {
		out.Commits += row.Commits
		out.PullRequests += row.PullRequests
		out.CodeReviews += row.CodeReviews
		out.Contributors++
	}
	return out
}

// TrendOptions selects the trend to plot: one metric for the top N users,
// across all years or month by month within one year.
type TrendOptions struct {
	Year          string
	Metric        domain.MetricKind
	TopN          int
	ExcludedUsers []string
}

// TrendSeries is one user's data points, aligned with the result labels.
type TrendSeries struct {
	Label  string `json:"label"`
	Points []int  `json:"points"`
}

// TrendResult pairs the period labels with one series per ranked user.
type TrendResult struct {
	Labels []string      `json:"labels"`
	Series []TrendSeries `json:"series"`
}

// Trend plots the top users of one metric over time. Year "all" yields one
// point per year present in the document, labels ascending; a specific year
// yields Jan through Dec, truncated at the current month when the year is
// the current one. A nil result means no user had activity to plot, which
// callers must distinguish from a result with empty series.
func (e *Engine) Trend(o TrendOptions) *TrendResult {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.Year == "" {
		o.Year = All
	}
	if o.Metric == "" {
		o.Metric = domain.MetricPullRequests
	}

	rows := e.Rank(Filters{Year: o.Year, Month: All, Metric: o.Metric, ExcludedUsers: o.ExcludedUsers})
	if len(rows) > o.TopN {
		rows = rows[:o.TopN]
	}
	if len(rows) == 0 {
		return nil
	}

	var labels []string
	if o.Year == All {
		labels = e.yearLabels()
	} else {
		labels = monthLabels(o.Year, e.now())
	}

	series := make([]TrendSeries, 0, len(rows))
	for _, row := range rows {
		s := e.doc.Users[row.Username].Series(o.Metric)
		points := make([]int, len(labels))
		if o.Year == All {
			for i, year := range labels {
				if bucket := s[year]; bucket != nil {
					points[i] = bucket.Total
				}
			}
		} else if bucket := s[o.Year]; bucket != nil {
			for i := range labels {
				points[i] = bucket.MonthCount(fmt.Sprintf("%02d", i+1))
			}
		}
		series = append(series, TrendSeries{Label: row.Username, Points: points})
	}

	return &TrendResult{Labels: labels, Series: series}
}

// AvailableYears lists every year with recorded activity, newest first.
// Years are discovered from the commits and pullRequests series; the
// codeReviews series is not scanned.
func (e *Engine) AvailableYears() []string {
	seen := make(map[string]struct{})
	for _, user := range e.doc.Users {
		for year := range user.Commits {
			seen[year] = struct{}{}
		}
		for year := range user.PullRequests {
			seen[year] = struct{}{}
		}
	}

	years := make([]string, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// yearLabels collects every year key across all users and metric kinds,
// ascending.
func (e *Engine) yearLabels() []string {
	seen := make(map[string]struct{})
	for _, user := range e.doc.Users {
		for _, s := range []domain.MetricSeries{user.Commits, user.PullRequests, user.CodeReviews} {
			for year := range s {
				seen[year] = struct{}{}
			}
		}
	}

	years := make([]string, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Strings(years)
	return years
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// monthLabels returns calendar month labels for a year, cut off at the
// current month when the year is still in progress.
func monthLabels(year string, now time.Time) []string {
	n := len(monthNames)
	if year == now.Format("2006") {
		n = int(now.Month())
	}
	return monthNames[:n]
}

// seriesValue evaluates one metric series under a year and month filter.
// Absent buckets count as zero.
func seriesValue(s domain.MetricSeries, year, month string) int {
	if year == All {
		total := 0
		for _, bucket := range s {
			if month == All {
				total += bucket.Total
			} else {
				total += bucket.MonthCount(month)
			}
		}
		return total
	}

	bucket := s[year]
	if bucket == nil {
		return 0
	}
	if month == All {
		return bucket.Total
	}
	return bucket.MonthCount(month)
}
