package collector

import (
	"context"
	"time"

	"github.com/contriboard/contriboard/internal/domain"
)

// Collector defines the interface for collecting GitHub contribution events
type Collector interface {
	// ListRepositories retrieves all repositories for an organization
	ListRepositories(ctx context.Context, org string) ([]*domain.Repository, error)

	// CollectCommits retrieves commit events for a repository
	CollectCommits(ctx context.Context, org, repo string, since, until time.Time) ([]*domain.Event, error)

	// CollectPullRequests retrieves pull request events for a repository
	CollectPullRequests(ctx context.Context, org, repo string, since, until time.Time) ([]*domain.Event, error)

	// CollectReviews retrieves code review events for a repository.
	// Self-reviews and reviews still pending are filtered out here, so
	// downstream consumers never see them.
	CollectReviews(ctx context.Context, org, repo string, since, until time.Time) ([]*domain.Event, error)

	// CollectOrganization collects all events for an organization
	CollectOrganization(ctx context.Context, org string, since, until time.Time, onProgress ProgressCallback) ([]*domain.Event, error)
}

// ProgressCallback is a callback function for reporting progress
type ProgressCallback func(repo string, progress float64)
