package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StarReport/internal/config"
	"StarReport/internal/domain"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://github.com/acme/widgets/stargazers"
	u, err := buildPageURL(base, 3)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "github.com" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}
	if parsed.Query().Get("page") != "3" {
		t.Fatalf("expected page=3, got %s", parsed.Query().Get("page"))
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<ol class="follow-list">
	  <li>
	    <a data-hovercard-type="user" href="/octocat">octocat</a>
	    <relative-time datetime="2021-03-05T10:00:00Z">Mar 5, 2021</relative-time>
	  </li>
	</ol>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	event, err := parseEntry(doc.Find("li").First())
	if err != nil {
		t.Fatalf("parseEntry error: %v", err)
	}

	if event.UserID != "octocat" {
		t.Fatalf("unexpected user: %s", event.UserID)
	}
	want := time.Date(2021, time.March, 5, 10, 0, 0, 0, time.UTC)
	if !event.StarredAt.Equal(want) {
		t.Fatalf("unexpected starred time: %v", event.StarredAt)
	}
}

func TestScannerStarEvents(t *testing.T) {
	t.Parallel()

	since := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)

	entry := func(login, stamp string) string {
		return fmt.Sprintf(`
		  <li>
		    <a data-hovercard-type="user" href="/%s">%s</a>
		    <relative-time datetime="%s">starred</relative-time>
		  </li>`, login, login, stamp)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/stargazers") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		// Newest first; the last entry predates the window and stops the crawl.
		_, _ = fmt.Fprintf(w, `<ol class="follow-list">%s%s%s</ol>`,
			entry("fresh", "2021-03-10T09:00:00Z"),
			entry("fresh", "2021-03-10T09:00:00Z"),
			entry("ancient", "2020-06-01T09:00:00Z"))
	}))
	defer server.Close()

	sc := NewScanner(config.GitHubConfig{WebBaseURL: server.URL}, server.Client())
	sc.pageSize = 3

	events, err := sc.StarEvents(context.Background(), "acme/widgets", since)
	if err != nil {
		t.Fatalf("StarEvents error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event after dedupe and window stop, got %d", len(events))
	}
	if events[0].UserID != "fresh" {
		t.Fatalf("unexpected user: %s", events[0].UserID)
	}
}

func TestScannerUserCreatedAt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/octocat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`<div class="vcard-details">
		  <relative-time datetime="2015-07-20T08:30:00Z">Joined</relative-time>
		</div>`))
	}))
	defer server.Close()

	sc := NewScanner(config.GitHubConfig{WebBaseURL: server.URL}, server.Client())

	createdAt, err := sc.UserCreatedAt(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("UserCreatedAt error: %v", err)
	}

	want := time.Date(2015, time.July, 20, 8, 30, 0, 0, time.UTC)
	if !createdAt.Equal(want) {
		t.Fatalf("unexpected created time: %v", createdAt)
	}
}

func TestScannerUserCreatedAtWrapsLookupError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div>no timestamps here</div>`))
	}))
	defer server.Close()

	sc := NewScanner(config.GitHubConfig{WebBaseURL: server.URL}, server.Client())

	if _, err := sc.UserCreatedAt(context.Background(), "ghost"); !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
