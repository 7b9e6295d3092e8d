package domain

import "time"

// EventType tags the source of a contribution event.
type EventType string

const (
	EventTypeCommit      EventType = "commit"
	EventTypePullRequest EventType = "pull_request"
	EventTypeReview      EventType = "review"
)

// Event is a single raw contribution record as delivered by the fetch layer.
//
// Timestamp carries the per-kind semantic instant: the authored time for
// commits (not the commit time, which can differ after rebases and merges),
// the creation time for pull requests, and the submission time for reviews.
type Event struct {
	ID        string
	Type      EventType
	Org       string
	Repo      string
	Actor     string // GitHub login; empty when the provider could not resolve one
	AvatarURL string
	Timestamp time.Time
	CreatedAt time.Time
}

// Metric returns the metric kind this event counts toward.
func (e *Event) Metric() MetricKind {
	switch e.Type {
	case EventTypeCommit:
		return MetricCommits
	case EventTypeReview:
		return MetricCodeReviews
	default:
		return MetricPullRequests
	}
}
