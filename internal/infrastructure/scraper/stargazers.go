package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StarReport/internal/config"
	"StarReport/internal/domain"
	"StarReport/internal/ports"
)

const defaultPageSize = 48

// Scanner implements ports.EventSource by crawling the public stargazers
// pages of a repository. It is a fallback strategy for runs without an
// API token; the API source stays the default.
type Scanner struct {
	baseURL  string
	client   *http.Client
	pageSize int
}

var _ ports.EventSource = (*Scanner)(nil)

// NewScanner wires an HTTP client; pageSize matches the stargazers page.
func NewScanner(cfg config.GitHubConfig, client *http.Client) *Scanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scanner{baseURL: cfg.WebBaseURL, client: client, pageSize: defaultPageSize}
}

// StarEvents walks the stargazers pages newest first and stops at the
// first entry older than since. Entries that fail to parse are skipped;
// duplicates across overlapping pages are dropped.
func (s *Scanner) StarEvents(ctx context.Context, repo string, since time.Time) ([]domain.StarEvent, error) {
	listURL := fmt.Sprintf("%s/%s/stargazers", strings.TrimSuffix(s.baseURL, "/"), repo)

	events := make([]domain.StarEvent, 0)
	seen := map[string]struct{}{}

	for page := 1; ; page++ {
		pageURL, err := buildPageURL(listURL, page)
		if err != nil {
			return nil, fmt.Errorf("repo %s: %w", repo, err)
		}

		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("repo %s: %w", repo, err)
		}

		pageEvents, processed, shouldContinue := s.extractEvents(doc, since)
		for _, event := range pageEvents {
			key := event.UserID + "|" + event.StarredAt.Format(time.RFC3339)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			events = append(events, event)
		}

		if !shouldContinue || processed < s.pageSize {
			break
		}
	}

	return events, nil
}

// UserCreatedAt scrapes the account profile page for its join timestamp.
// Every failure kind wraps domain.ErrLookup so the enricher can degrade
// uniformly.
func (s *Scanner) UserCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	profileURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.baseURL, "/"), url.PathEscape(userID))

	doc, err := s.fetchDocument(ctx, profileURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("user %s: %v: %w", userID, err, domain.ErrLookup)
	}

	stamp, exists := doc.Find("relative-time").First().Attr("datetime")
	if !exists {
		return time.Time{}, fmt.Errorf("user %s: profile has no join timestamp: %w", userID, domain.ErrLookup)
	}

	createdAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("user %s: parse join timestamp %q: %v: %w", userID, stamp, err, domain.ErrLookup)
	}

	return createdAt.UTC(), nil
}

func (s *Scanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "StarReport/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stargazers page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *Scanner) extractEvents(doc *goquery.Document, since time.Time) ([]domain.StarEvent, int, bool) {
	var (
		collected    []domain.StarEvent
		continueScan = true
		processed    int
	)

	doc.Find("ol.follow-list li").EachWithBreak(func(i int, entry *goquery.Selection) bool {
		processed++

		event, err := parseEntry(entry)
		if err != nil {
			return true
		}

		if !since.IsZero() && event.StarredAt.Before(since) {
			continueScan = false
			return false
		}
		collected = append(collected, event)

		return true
	})

	return collected, processed, continueScan
}

func parseEntry(entry *goquery.Selection) (domain.StarEvent, error) {
	link := entry.Find(`a[data-hovercard-type="user"]`).First()
	if link.Length() == 0 {
		link = entry.Find("a[href]").First()
	}

	href, _ := link.Attr("href")
	login := strings.Trim(href, "/")
	if login == "" {
		return domain.StarEvent{}, fmt.Errorf("entry has no user link")
	}

	stamp, exists := entry.Find("relative-time").First().Attr("datetime")
	if !exists {
		return domain.StarEvent{}, fmt.Errorf("entry for %s has no starred timestamp", login)
	}

	starredAt, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return domain.StarEvent{}, fmt.Errorf("entry for %s: parse timestamp %q: %w", login, stamp, err)
	}

	return domain.StarEvent{UserID: login, StarredAt: starredAt.UTC()}, nil
}

func buildPageURL(base string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid stargazers url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
