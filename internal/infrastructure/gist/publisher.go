package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"StarReport/internal/config"
	"StarReport/internal/domain"
	"StarReport/internal/ports"
)

// Publisher uploads report artifacts into a GitHub gist. Re-publishing
// under the same gist id overwrites the file, so publishing is idempotent
// per locator.
type Publisher struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher wires token and endpoint from configuration.
func NewPublisher(cfg config.GitHubConfig) *Publisher {
	return &Publisher{
		baseURL: cfg.APIBaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish patches the gist with the artifact content and returns its
// html_url. Every failure kind wraps domain.ErrPublish.
func (p *Publisher) Publish(ctx context.Context, artifact domain.ReportArtifact, gistID string) (string, error) {
	if p.token == "" || gistID == "" {
		return "", fmt.Errorf("gist publisher misconfigured: %w", domain.ErrPublish)
	}

	body, err := json.Marshal(map[string]any{
		"files": map[string]any{
			artifact.FileName: map[string]string{
				"content": string(artifact.Content),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gist payload: %v: %w", err, domain.ErrPublish)
	}

	endpoint := fmt.Sprintf("%s/gists/%s", p.baseURL, gistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %v: %w", err, domain.ErrPublish)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("edit gist %s: %v: %w", gistID, err, domain.ErrPublish)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gist %s returned %s: %s: %w",
			gistID, resp.Status, strings.TrimSpace(string(payload)), domain.ErrPublish)
	}

	var gist struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return "", fmt.Errorf("decode gist response: %v: %w", err, domain.ErrPublish)
	}

	return gist.HTMLURL, nil
}
