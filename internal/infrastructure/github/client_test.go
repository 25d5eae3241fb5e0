package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StarReport/internal/config"
	"StarReport/internal/domain"
)

type stargazerRow struct {
	StarredAt time.Time `json:"starred_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

func row(login string, starredAt time.Time) stargazerRow {
	var r stargazerRow
	r.StarredAt = starredAt
	r.User.Login = login
	return r
}

func newTestClient(server *httptest.Server) *Client {
	client := NewClient(config.GitHubConfig{APIBaseURL: server.URL, Token: "test-token"}, server.Client())
	client.pageSize = 2
	return client
}

func TestStarEventsPaginates(t *testing.T) {
	t.Parallel()

	base := time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)
	pages := map[string][]stargazerRow{
		"1": {row("u1", base), row("u2", base.AddDate(0, 0, 1))},
		"2": {row("u3", base.AddDate(0, 0, 2))},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/stargazers", r.URL.Path)
		assert.Equal(t, starMediaType, r.Header.Get("Accept"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(pages[r.URL.Query().Get("page")])
	}))
	defer server.Close()

	events, err := newTestClient(server).StarEvents(context.Background(), "acme/widgets", time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, base, events[0].StarredAt)
	assert.Equal(t, "u3", events[2].UserID)
}

func TestStarEventsFiltersSince(t *testing.T) {
	t.Parallel()

	since := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	rows := []stargazerRow{
		row("old", since.AddDate(0, -6, 0)),
		row("new", since.AddDate(0, 0, 3)),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer server.Close()

	events, err := newTestClient(server).StarEvents(context.Background(), "acme/widgets", since)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].UserID)
}

func TestStarEventsSurfacesServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server).StarEvents(context.Background(), "acme/widgets", time.Time{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLookup, "event fetch failures are fatal, not lookup failures")
}

func TestUserCreatedAt(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2015, time.July, 20, 8, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		fmt.Fprintf(w, `{"login":"octocat","created_at":%q}`, createdAt.Format(time.RFC3339))
	}))
	defer server.Close()

	got, err := newTestClient(server).UserCreatedAt(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, createdAt, got)
}

func TestUserCreatedAtWrapsLookupError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server).UserCreatedAt(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrLookup)
	assert.Contains(t, err.Error(), "gone")
}
