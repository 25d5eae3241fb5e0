package ports

import (
	"context"
	"time"

	"StarReport/internal/domain"
)

// EventSource pulls raw star events and account metadata from an upstream
// provider. StarEvents may return events outside the requested window; the
// pipeline filters before aggregation. UserCreatedAt failures of any kind
// (not found, rate limited, network) wrap domain.ErrLookup.
type EventSource interface {
	StarEvents(ctx context.Context, repo string, since time.Time) ([]domain.StarEvent, error)
	UserCreatedAt(ctx context.Context, userID string) (time.Time, error)
}

// Publisher uploads a built artifact under a target locator and returns a
// durable URL. Publishing is idempotent per locator; failures wrap
// domain.ErrPublish.
type Publisher interface {
	Publish(ctx context.Context, artifact domain.ReportArtifact, locator string) (string, error)
}

// ProgressSink receives fire-and-forget enrichment progress events.
type ProgressSink interface {
	OnProgress(completed, total int)
}

// RunRepository persists finished runs and their week buckets for audit.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.RunResult) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
