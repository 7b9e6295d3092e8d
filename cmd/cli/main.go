package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/contriboard/contriboard/internal/aggregator"
	"github.com/contriboard/contriboard/internal/collector"
	"github.com/contriboard/contriboard/internal/config"
	"github.com/contriboard/contriboard/internal/domain"
	apperrors "github.com/contriboard/contriboard/internal/errors"
	"github.com/contriboard/contriboard/internal/query"
	"github.com/contriboard/contriboard/internal/storage"
	"github.com/contriboard/contriboard/internal/storage/postgres"
	"github.com/contriboard/contriboard/internal/storage/sqlite"
	"github.com/contriboard/contriboard/pkg/client"
	"github.com/contriboard/contriboard/pkg/logger"
)

var (
	outputJSON  bool
	remoteFlag  bool
	yearFlag    string
	monthFlag   string
	metricFlag  string
	excludeFlag []string
	topFlag     int
	sinceFlag   string
	untilFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "contriboard",
	Short: "GitHub contribution statistics tool",
	Long: `A CLI tool for collecting and querying GitHub contribution statistics.

It gathers commits, pull requests, and code reviews across the configured
organizations, builds a per-user summary document, and answers leaderboard,
totals, and trend queries against it.`,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect events from GitHub and rebuild the summary",
	Long: `Fetch commits, pull requests, and code reviews for every configured
organization, archive the raw events, and write a fresh summary document.`,
	RunE: runCollect,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the summary from archived events",
	Long: `Re-aggregate the summary document from events already in the archive,
without contacting GitHub.`,
	RunE: runRebuild,
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the contributor leaderboard",
	Long:  `Display contributors ranked by the chosen metric for the filtered period.`,
	RunE:  runLeaderboard,
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show aggregate totals",
	Long:  `Display summed contribution counts and the contributor count for the filtered period.`,
	RunE:  runTotals,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show top contributors over time",
	Long:  `Display the top contributors' activity per year, or per month within one year.`,
	RunE:  runTrend,
}

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List years with recorded activity",
	RunE:  runYears,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	for _, cmd := range []*cobra.Command{leaderboardCmd, totalsCmd, trendCmd} {
		cmd.Flags().StringVar(&yearFlag, "year", query.All, "year to filter by, or 'all'")
		cmd.Flags().StringVar(&metricFlag, "metric", string(domain.MetricPullRequests), "metric: commits, pullRequests, codeReviews")
		cmd.Flags().StringSliceVar(&excludeFlag, "exclude", nil, "usernames to exclude (repeatable)")
	}
	for _, cmd := range []*cobra.Command{leaderboardCmd, totalsCmd, trendCmd, yearsCmd} {
		cmd.Flags().BoolVar(&remoteFlag, "remote", false, "query the API server instead of the local summary file")
	}
	leaderboardCmd.Flags().StringVar(&monthFlag, "month", query.All, "zero-padded month to filter by, or 'all'")
	totalsCmd.Flags().StringVar(&monthFlag, "month", query.All, "zero-padded month to filter by, or 'all'")
	trendCmd.Flags().IntVar(&topFlag, "top", query.DefaultTopN, "number of users to plot")

	for _, cmd := range []*cobra.Command{collectCmd, rebuildCmd} {
		cmd.Flags().StringVar(&sinceFlag, "since", "", "window start (YYYY-MM-DD)")
		cmd.Flags().StringVar(&untilFlag, "until", "", "window end (YYYY-MM-DD)")
	}

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(yearsCmd)
	rootCmd.AddCommand(trendCmd)
}

func main() {
	logger.UseTextFormat()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getArchive(cfg *config.Config) (storage.Archive, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresArchive(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteArchive(cfg.SQLitePath)
	}
}

// getWindow resolves the collection window: flags beat environment values,
// and an unset window defaults to the start of the current year until now.
func getWindow(cfg *config.Config) (time.Time, time.Time, error) {
	now := time.Now()
	since := cfg.Since
	until := cfg.Until

	if sinceFlag != "" {
		t, err := time.Parse("2006-01-02", sinceFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since value %q: %w", sinceFlag, err)
		}
		since = t
	}
	if untilFlag != "" {
		t, err := time.Parse("2006-01-02", untilFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until value %q: %w", untilFlag, err)
		}
		until = t
	}

	if since.IsZero() {
		since = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if until.IsZero() {
		until = now
	}
	if until.Before(since) {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %s is before start %s",
			until.Format("2006-01-02"), since.Format("2006-01-02"))
	}

	return since, until, nil
}

// getMetric parses the --metric flag
func getMetric() (domain.MetricKind, error) {
	metric, ok := domain.ParseMetricKind(metricFlag)
	if !ok {
		return "", fmt.Errorf("invalid metric %q: must be one of commits, pullRequests, codeReviews", metricFlag)
	}
	return metric, nil
}

// loadEngine opens the summary document for querying
func loadEngine(cfg *config.Config) (*query.Engine, error) {
	store := storage.NewDocumentStore(cfg.SummaryPath)
	doc, err := store.Load()
	if err != nil {
		if apperrors.IsNoData(err) {
			return nil, fmt.Errorf("no summary document at %s: run 'contriboard collect' first", store.Path())
		}
		return nil, err
	}
	return query.New(doc)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	since, until, err := getWindow(cfg)
	if err != nil {
		return err
	}

	archive, err := getArchive(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}
	defer archive.Close()

	coll := collector.NewGitHubCollector(cfg.GitHubToken)
	ctx := context.Background()

	run := &domain.CollectionRun{
		Organizations: cfg.Organizations,
		Since:         since,
		Until:         until,
		Started:       time.Now(),
	}
	agg := aggregator.New()

	fmt.Printf("Collecting %s to %s for: %s\n",
		since.Format("2006-01-02"), until.Format("2006-01-02"), strings.Join(cfg.Organizations, ", "))

	for _, org := range cfg.Organizations {
		events, err := coll.CollectOrganization(ctx, org, since, until, func(repo string, progress float64) {
			fmt.Printf("\r%s: %.1f%% (%s)          ", org, progress*100, repo)
		})
		if err != nil {
			return fmt.Errorf("failed to collect %s: %w", org, err)
		}
		fmt.Println()

		// Replace the org's archived events so a re-run cannot double count
		if err := archive.DeleteEvents(ctx, org); err != nil {
			return fmt.Errorf("failed to clear archived events for %s: %w", org, err)
		}
		if err := archive.SaveEvents(ctx, events); err != nil {
			return fmt.Errorf("failed to archive events for %s: %w", org, err)
		}

		for _, e := range events {
			run.Count(e)
		}
		agg.Add(events...)
	}

	doc := agg.Document(cfg.Organizations)
	docStore := storage.NewDocumentStore(cfg.SummaryPath)
	if err := docStore.Save(doc); err != nil {
		return fmt.Errorf("failed to write summary document: %w", err)
	}
	run.Finished = time.Now()

	fmt.Printf("\nSummary written to %s\n\n", cfg.SummaryPath)
	renderRun(run, agg.Users())
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	since, until, err := getWindow(cfg)
	if err != nil {
		return err
	}

	archive, err := getArchive(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}
	defer archive.Close()

	ctx := context.Background()

	orgs := cfg.Organizations
	if len(orgs) == 0 {
		if orgs, err = archive.Organizations(ctx); err != nil {
			return fmt.Errorf("failed to list archived organizations: %w", err)
		}
	}
	if len(orgs) == 0 {
		return fmt.Errorf("archive is empty: run 'contriboard collect' first")
	}

	agg := aggregator.New()
	total := 0
	for _, org := range orgs {
		commits, err := archive.GetEvents(ctx, storage.EventFilter{
			Org: org, Type: domain.EventTypeCommit, Since: since, Until: until,
		})
		if err != nil {
			return fmt.Errorf("failed to read commits for %s: %w", org, err)
		}
		prs, err := archive.GetEvents(ctx, storage.EventFilter{
			Org: org, Type: domain.EventTypePullRequest, Since: since, Until: until,
		})
		if err != nil {
			return fmt.Errorf("failed to read pull requests for %s: %w", org, err)
		}
		reviews, err := archive.GetEvents(ctx, storage.EventFilter{
			Org: org, Type: domain.EventTypeReview, Since: since, Until: until,
		})
		if err != nil {
			return fmt.Errorf("failed to read reviews for %s: %w", org, err)
		}

		agg.Aggregate(commits, prs, reviews)
		total += len(commits) + len(prs) + len(reviews)
	}

	doc := agg.Document(orgs)
	docStore := storage.NewDocumentStore(cfg.SummaryPath)
	if err := docStore.Save(doc); err != nil {
		return fmt.Errorf("failed to write summary document: %w", err)
	}

	fmt.Printf("Rebuilt summary from %d archived events (%d users) into %s\n",
		total, agg.Users(), cfg.SummaryPath)
	return nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	metric, err := getMetric()
	if err != nil {
		return err
	}

	var rows []query.UserRow
	if remoteFlag {
		rows, err = client.NewClient(cfg.APIEndpoint).GetLeaderboard(yearFlag, monthFlag, string(metric), excludeFlag)
		if err != nil {
			return err
		}
	} else {
		engine, err := loadEngine(cfg)
		if err != nil {
			return err
		}
		rows = engine.Rank(query.Filters{
			Year:          yearFlag,
			Month:         monthFlag,
			Metric:        metric,
			ExcludedUsers: append(cfg.ExcludedUsers, excludeFlag...),
		})
	}

	if outputJSON {
		return printJSON(rows)
	}

	fmt.Printf("\nLeaderboard by %s (year: %s, month: %s)\n\n", metric, yearFlag, monthFlag)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "User", "Value", "Commits", "Pull Requests", "Code Reviews"})
	for i, row := range rows {
		table.Append([]string{
			strconv.Itoa(i + 1),
			row.Username,
			strconv.Itoa(row.Value),
			strconv.Itoa(row.Commits),
			strconv.Itoa(row.PullRequests),
			strconv.Itoa(row.CodeReviews),
		})
	}
	table.Render()
	return nil
}

func runTotals(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	metric, err := getMetric()
	if err != nil {
		return err
	}

	var totals query.Summary
	if remoteFlag {
		res, err := client.NewClient(cfg.APIEndpoint).GetTotals(yearFlag, monthFlag, string(metric), excludeFlag)
		if err != nil {
			return err
		}
		if res != nil {
			totals = *res
		}
	} else {
		engine, err := loadEngine(cfg)
		if err != nil {
			return err
		}
		totals = engine.Totals(query.Filters{
			Year:          yearFlag,
			Month:         monthFlag,
			Metric:        metric,
			ExcludedUsers: append(cfg.ExcludedUsers, excludeFlag...),
		})
	}

	if outputJSON {
		return printJSON(totals)
	}

	fmt.Printf("\nTotals (year: %s, month: %s)\n\n", yearFlag, monthFlag)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Commits", strconv.Itoa(totals.Commits)})
	table.Append([]string{"Pull Requests", strconv.Itoa(totals.PullRequests)})
	table.Append([]string{"Code Reviews", strconv.Itoa(totals.CodeReviews)})
	table.Append([]string{"Contributors", strconv.Itoa(totals.Contributors)})
	table.Render()
	return nil
}

func runTrend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	metric, err := getMetric()
	if err != nil {
		return err
	}

	var res *query.TrendResult
	if remoteFlag {
		res, err = client.NewClient(cfg.APIEndpoint).GetTrend(yearFlag, string(metric), topFlag, excludeFlag)
		if err != nil {
			return err
		}
	} else {
		engine, err := loadEngine(cfg)
		if err != nil {
			return err
		}
		res = engine.Trend(query.TrendOptions{
			Year:          yearFlag,
			Metric:        metric,
			TopN:          topFlag,
			ExcludedUsers: append(cfg.ExcludedUsers, excludeFlag...),
		})
	}

	if outputJSON {
		return printJSON(res)
	}
	if res == nil {
		fmt.Println("No activity to plot for the selected period.")
		return nil
	}

	fmt.Printf("\nTop %d by %s (year: %s)\n\n", len(res.Series), metric, yearFlag)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(append([]string{"User"}, res.Labels...))
	for _, s := range res.Series {
		cells := make([]string, 0, len(s.Points)+1)
		cells = append(cells, s.Label)
		for _, p := range s.Points {
			cells = append(cells, strconv.Itoa(p))
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

func runYears(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var years []string
	if remoteFlag {
		years, err = client.NewClient(cfg.APIEndpoint).GetYears()
		if err != nil {
			return err
		}
	} else {
		engine, err := loadEngine(cfg)
		if err != nil {
			return err
		}
		years = engine.AvailableYears()
	}

	if outputJSON {
		return printJSON(years)
	}

	for _, year := range years {
		fmt.Println(year)
	}
	return nil
}

// renderRun prints the collect run summary table
func renderRun(run *domain.CollectionRun, users int) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Organizations", strings.Join(run.Organizations, ", ")})
	table.Append([]string{"Window", fmt.Sprintf("%s to %s",
		run.Since.Format("2006-01-02"), run.Until.Format("2006-01-02"))})
	table.Append([]string{"Commits", strconv.Itoa(run.Commits)})
	table.Append([]string{"Pull Requests", strconv.Itoa(run.PullRequests)})
	table.Append([]string{"Code Reviews", strconv.Itoa(run.Reviews)})
	table.Append([]string{"Total Events", strconv.Itoa(run.Total())})
	table.Append([]string{"Users", strconv.Itoa(users)})
	table.Append([]string{"Duration", run.Finished.Sub(run.Started).Round(time.Second).String()})
	table.Render()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
