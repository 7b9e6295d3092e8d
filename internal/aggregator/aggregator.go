package aggregator

import (
	"time"

	"github.com/contriboard/contriboard/internal/domain"
)

// Aggregator folds contribution events into per-user metric series. Each
// run builds its own Aggregator, fills it from collected events, and seals
// it into a summary document; nothing is shared between runs.
type Aggregator struct {
	users map[string]*domain.UserSummary
	now   func() time.Time
}

// New creates an empty aggregator
func New() *Aggregator {
	return &Aggregator{
		users: make(map[string]*domain.UserSummary),
		now:   time.Now,
	}
}

// Add folds a batch of events into the accumulator. Events without an actor
// login are skipped; commits GitHub could not attribute to an account arrive
// that way. The first event seen for a login creates its summary with all
// three series, whichever kind the event is. A non-empty avatar on any later
// event replaces the stored one.
func (a *Aggregator) Add(events ...*domain.Event) {
	for _, e := range events {
		if e.Actor == "" {
			continue
		}
		user, ok := a.users[e.Actor]
		if !ok {
			user = domain.NewUserSummary(e.AvatarURL)
			a.users[e.Actor] = user
		} else if e.AvatarURL != "" {
			user.Avatar = e.AvatarURL
		}
		user.Series(e.Metric()).Record(e.Timestamp)
	}
}

// Aggregate folds the three event lists collected for one scope. Calling it
// once per organization accumulates into the same buckets, so a multi-org
// run produces a single merged document. Review events are expected to be
// pre-filtered by the collector: no self-reviews, no pending reviews.
func (a *Aggregator) Aggregate(commits, pullRequests, reviews []*domain.Event) {
	a.Add(commits...)
	a.Add(pullRequests...)
	a.Add(reviews...)
}

// Users returns the number of distinct logins accumulated so far.
func (a *Aggregator) Users() int {
	return len(a.users)
}

// Document seals the accumulator into a summary document, stamping the
// build time and the organizations the events were collected from.
func (a *Aggregator) Document(organizations []string) *domain.SummaryDocument {
	doc := &domain.SummaryDocument{
		LastUpdated:   a.now().UTC(),
		Organizations: organizations,
		Users:         a.users,
	}
	doc.Normalize()
	return doc
}
