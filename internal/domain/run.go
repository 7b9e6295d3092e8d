package domain

import "time"

// CollectionRun summarizes one collect pass over the configured
// organizations: the window that was fetched and how many events of each
// kind were gathered.
type CollectionRun struct {
	Organizations []string
	Since         time.Time
	Until         time.Time
	Commits       int
	PullRequests  int
	Reviews       int
	Started       time.Time
	Finished      time.Time
}

// Total returns the number of events gathered across all kinds.
func (r *CollectionRun) Total() int {
	return r.Commits + r.PullRequests + r.Reviews
}

// Count tallies one event into the per-kind counters.
func (r *CollectionRun) Count(e *Event) {
	switch e.Type {
	case EventTypeCommit:
		r.Commits++
	case EventTypePullRequest:
		r.PullRequests++
	case EventTypeReview:
		r.Reviews++
	}
}
