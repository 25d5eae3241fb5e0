package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"StarReport/internal/config"
	"StarReport/internal/domain"
	"StarReport/internal/ports"
)

const (
	starMediaType   = "application/vnd.github.star+json"
	defaultPageSize = 100
)

// Client implements ports.EventSource against the GitHub REST API.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

var _ ports.EventSource = (*Client)(nil)

// NewClient builds a client from configuration; a nil http.Client gets a
// sensible timeout.
func NewClient(cfg config.GitHubConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:  cfg.APIBaseURL,
		token:    cfg.Token,
		pageSize: defaultPageSize,
		http:     httpClient,
	}
}

// StarEvents pages through the repository's stargazers with the star
// media type, which includes starred_at timestamps. Events older than
// since are skipped; pagination still walks every page because the API
// orders stargazers oldest first only by default, not by contract.
func (c *Client) StarEvents(ctx context.Context, repo string, since time.Time) ([]domain.StarEvent, error) {
	var events []domain.StarEvent

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/stargazers?per_page=%d&page=%d", c.baseURL, repo, c.pageSize, page)

		var batch []struct {
			StarredAt time.Time `json:"starred_at"`
			User      struct {
				Login string `json:"login"`
			} `json:"user"`
		}
		if err := c.get(ctx, url, starMediaType, &batch); err != nil {
			return nil, fmt.Errorf("stargazers page %d: %w", page, err)
		}

		for _, row := range batch {
			if !since.IsZero() && row.StarredAt.Before(since) {
				continue
			}
			events = append(events, domain.StarEvent{
				UserID:    row.User.Login,
				StarredAt: row.StarredAt,
			})
		}

		if len(batch) < c.pageSize {
			return events, nil
		}
	}
}

// UserCreatedAt resolves one account's creation timestamp. Every failure
// kind wraps domain.ErrLookup so the enricher can degrade uniformly.
func (c *Client) UserCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, userID)

	var user struct {
		CreatedAt time.Time `json:"created_at"`
	}
	if err := c.get(ctx, url, "", &user); err != nil {
		return time.Time{}, fmt.Errorf("user %s: %v: %w", userID, err, domain.ErrLookup)
	}

	return user.CreatedAt, nil
}

func (c *Client) get(ctx context.Context, url, accept string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
