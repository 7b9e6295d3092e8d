package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/contriboard/contriboard/internal/domain"
	"github.com/contriboard/contriboard/pkg/logger"
)

// githubCollector implements Collector using GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
}

// NewGitHubCollector creates a new GitHub collector
func NewGitHubCollector(token string) Collector {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(),
	}
}

// ListRepositories retrieves all repositories for an organization
func (c *githubCollector) ListRepositories(ctx context.Context, org string) ([]*domain.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allRepos []*domain.Repository
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, &domain.Repository{
				Org:       org,
				Name:      repo.GetName(),
				FullName:  repo.GetFullName(),
				IsPrivate: repo.GetPrivate(),
				Fork:      repo.GetFork(),
				Archived:  repo.GetArchived(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allRepos, nil
}

// CollectCommits retrieves commit events for a repository. The actor is the
// linked GitHub account of the commit author; commits GitHub cannot match to
// an account get an empty actor. The timestamp is the authored date.
func (c *githubCollector) CollectCommits(ctx context.Context, org, repo string, since, until time.Time) ([]*domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var events []*domain.Event
	opts := &github.CommitsListOptions{
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		commits, resp, err := c.client.Repositories.ListCommits(ctx, org, repo, opts)
		if err != nil {
			// Skip if repository is empty or has no commits
			if resp != nil && resp.StatusCode == 409 {
				return events, nil
			}
			return nil, fmt.Errorf("failed to list commits for %s/%s: %w", org, repo, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, commit := range commits {
			events = append(events, &domain.Event{
				ID:        uuid.New().String(),
				Type:      domain.EventTypeCommit,
				Org:       org,
				Repo:      repo,
				Actor:     commit.GetAuthor().GetLogin(),
				AvatarURL: commit.GetAuthor().GetAvatarURL(),
				Timestamp: commit.GetCommit().GetAuthor().GetDate().Time,
				CreatedAt: time.Now(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return events, nil
}

// CollectPullRequests retrieves pull request events for a repository,
// one per pull request created inside the window
func (c *githubCollector) CollectPullRequests(ctx context.Context, org, repo string, since, until time.Time) ([]*domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var events []*domain.Event
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := c.client.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", org, repo, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, pr := range prs {
			createdAt := pr.GetCreatedAt().Time
			if createdAt.Before(since) {
				// PRs are sorted by created date desc, so we can stop here
				return events, nil
			}
			if createdAt.After(until) {
				continue
			}
			if pr.User == nil {
				continue
			}

			events = append(events, &domain.Event{
				ID:        uuid.New().String(),
				Type:      domain.EventTypePullRequest,
				Org:       org,
				Repo:      repo,
				Actor:     pr.User.GetLogin(),
				AvatarURL: pr.User.GetAvatarURL(),
				Timestamp: createdAt,
				CreatedAt: time.Now(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return events, nil
}

// CollectReviews retrieves code review events for a repository. It walks
// the pull requests created inside the window and emits one event per
// submitted review, dropping reviews a PR author left on their own PR and
// reviews still in the pending state.
func (c *githubCollector) CollectReviews(ctx context.Context, org, repo string, since, until time.Time) ([]*domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var events []*domain.Event
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := c.client.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", org, repo, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, pr := range prs {
			createdAt := pr.GetCreatedAt().Time
			if createdAt.Before(since) {
				return events, nil
			}
			if createdAt.After(until) {
				continue
			}

			reviews, err := c.collectPullRequestReviews(ctx, org, repo, pr, since, until)
			if err != nil {
				return nil, err
			}
			events = append(events, reviews...)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return events, nil
}

// collectPullRequestReviews fetches the submitted reviews of one pull request
func (c *githubCollector) collectPullRequestReviews(ctx context.Context, org, repo string, pr *github.PullRequest, since, until time.Time) ([]*domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	author := pr.GetUser().GetLogin()

	var events []*domain.Event
	opts := &github.ListOptions{PerPage: 100}

	for {
		reviews, resp, err := c.client.PullRequests.ListReviews(ctx, org, repo, pr.GetNumber(), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews for %s/%s#%d: %w", org, repo, pr.GetNumber(), err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, review := range reviews {
			reviewer := review.GetUser().GetLogin()
			if reviewer == "" || reviewer == author {
				continue
			}
			submittedAt := review.GetSubmittedAt().Time
			if review.GetState() == "PENDING" || submittedAt.IsZero() {
				continue
			}
			if submittedAt.Before(since) || submittedAt.After(until) {
				continue
			}

			events = append(events, &domain.Event{
				ID:        uuid.New().String(),
				Type:      domain.EventTypeReview,
				Org:       org,
				Repo:      repo,
				Actor:     reviewer,
				AvatarURL: review.GetUser().GetAvatarURL(),
				Timestamp: submittedAt,
				CreatedAt: time.Now(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return events, nil
}

// CollectOrganization collects all events for an organization
func (c *githubCollector) CollectOrganization(ctx context.Context, org string, since, until time.Time, onProgress ProgressCallback) ([]*domain.Event, error) {
	// Get all repositories
	repos, err := c.ListRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	forks, archived := 0, 0
	for _, r := range repos {
		if r.Fork {
			forks++
		}
		if r.Archived {
			archived++
		}
	}
	logger.WithFields(map[string]interface{}{
		"org":      org,
		"repos":    len(repos),
		"forks":    forks,
		"archived": archived,
	}).Info("collecting organization")

	var allEvents []*domain.Event
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, len(repos))

	// Limit concurrent goroutines
	semaphore := make(chan struct{}, 5)

	for i, repo := range repos {
		wg.Add(1)
		go func(r *domain.Repository, index int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			// Collect commits
			commits, err := c.CollectCommits(ctx, org, r.Name, since, until)
			if err != nil {
				errCh <- fmt.Errorf("failed to collect commits for %s: %w", r.Name, err)
				return
			}

			mu.Lock()
			allEvents = append(allEvents, commits...)
			mu.Unlock()

			// Collect pull requests
			prs, err := c.CollectPullRequests(ctx, org, r.Name, since, until)
			if err != nil {
				errCh <- fmt.Errorf("failed to collect pull requests for %s: %w", r.Name, err)
				return
			}

			mu.Lock()
			allEvents = append(allEvents, prs...)
			mu.Unlock()

			// Collect reviews
			reviews, err := c.CollectReviews(ctx, org, r.Name, since, until)
			if err != nil {
				errCh <- fmt.Errorf("failed to collect reviews for %s: %w", r.Name, err)
				return
			}

			mu.Lock()
			allEvents = append(allEvents, reviews...)
			mu.Unlock()

			// Report progress
			if onProgress != nil {
				onProgress(r.Name, float64(index+1)/float64(len(repos)))
			}
		}(repo, i)
	}

	wg.Wait()
	close(errCh)

	// A failed repository must not sink the whole run
	for err := range errCh {
		if err != nil {
			logger.WithError(err).Warn("skipping repository after collection failure")
		}
	}

	return allEvents, nil
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
