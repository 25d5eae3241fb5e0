package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"StarReport/internal/domain"
	"StarReport/internal/ports"
)

const defaultWorkers = 2

// Enricher resolves account-creation timestamps for a batch of user ids
// using a fixed-size worker pool. A failed lookup degrades that one entry
// to an unresolved profile; it never fails the batch.
type Enricher struct {
	source   ports.EventSource
	workers  int
	timeout  time.Duration
	progress ports.ProgressSink
	logger   *slog.Logger
}

// NewEnricher wires the upstream source. A nil progress sink disables
// progress reporting; workers <= 0 falls back to the default pool size.
func NewEnricher(source ports.EventSource, workers int, timeout time.Duration, progress ports.ProgressSink, log *slog.Logger) *Enricher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Enricher{
		source:   source,
		workers:  workers,
		timeout:  timeout,
		progress: progress,
		logger:   log,
	}
}

// Enrich resolves every distinct user id to a UserProfile. The returned
// mapping holds exactly one entry per requested id. When ctx is cancelled
// mid-flight the partial mapping is discarded and the context error is
// returned, so callers never aggregate over an incomplete batch.
func (e *Enricher) Enrich(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error) {
	ids := dedupe(userIDs)
	total := len(ids)

	profiles := make(map[string]domain.UserProfile, total)
	if total == 0 {
		return profiles, nil
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
	)
	jobs := make(chan string)

	wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go func() {
			defer wg.Done()
			for id := range jobs {
				profile := e.lookup(ctx, id)

				mu.Lock()
				profiles[id] = profile
				completed++
				done := completed
				mu.Unlock()

				if e.progress != nil {
					e.progress.OnProgress(done, total)
				}
			}
		}()
	}

	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (e *Enricher) lookup(ctx context.Context, userID string) domain.UserProfile {
	lctx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	createdAt, err := e.source.UserCreatedAt(lctx, userID)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("user lookup failed", "user", userID, "error", err)
		}
		return domain.UserProfile{UserID: userID}
	}

	return domain.UserProfile{UserID: userID, CreatedAt: createdAt, Resolved: true}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
