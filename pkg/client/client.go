package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/contriboard/contriboard/internal/domain"
	"github.com/contriboard/contriboard/internal/query"
)

// Client is the API client for contriboard
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetLeaderboard retrieves contributors ranked by the given metric. Empty
// year, month or metric select the server defaults.
func (c *Client) GetLeaderboard(year, month, metric string, exclude []string) ([]query.UserRow, error) {
	params := c.buildFilterParams(year, month, metric, exclude)

	var response struct {
		Data []query.UserRow `json:"data"`
	}
	if err := c.get("/api/v1/leaderboard", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetTotals retrieves aggregate totals for the filtered period
func (c *Client) GetTotals(year, month, metric string, exclude []string) (*query.Summary, error) {
	params := c.buildFilterParams(year, month, metric, exclude)

	var response struct {
		Data *query.Summary `json:"data"`
	}
	if err := c.get("/api/v1/totals", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetTrend retrieves the top contributors' activity over time. A nil result
// means the server had no activity to plot.
func (c *Client) GetTrend(year, metric string, top int, exclude []string) (*query.TrendResult, error) {
	params := c.buildFilterParams(year, "", metric, exclude)
	if top > 0 {
		params.Set("top", strconv.Itoa(top))
	}

	var response struct {
		Data *query.TrendResult `json:"data"`
	}
	if err := c.get("/api/v1/trend", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetYears retrieves the years with recorded activity, newest first
func (c *Client) GetYears() ([]string, error) {
	var response struct {
		Data []string `json:"data"`
	}
	if err := c.get("/api/v1/years", nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSummary retrieves the full summary document
func (c *Client) GetSummary() (*domain.SummaryDocument, error) {
	var response struct {
		Data *domain.SummaryDocument `json:"data"`
	}
	if err := c.get("/api/v1/summary", nil, &response); err != nil {
		return nil, err
	}
	if response.Data != nil {
		response.Data.Normalize()
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) buildFilterParams(year, month, metric string, exclude []string) url.Values {
	params := url.Values{}
	if year != "" {
		params.Set("year", year)
	}
	if month != "" {
		params.Set("month", month)
	}
	if metric != "" {
		params.Set("metric", metric)
	}
	if len(exclude) > 0 {
		params.Set("exclude", strings.Join(exclude, ","))
	}
	return params
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
