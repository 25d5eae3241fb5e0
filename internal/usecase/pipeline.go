package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"StarReport/internal/aggregate"
	"StarReport/internal/config"
	"StarReport/internal/domain"
	"StarReport/internal/enrich"
	"StarReport/internal/ports"
	"StarReport/internal/report"
)

// RunState is the explicit initialization-state object a pipeline is
// constructed against. Each state backs at most one pipeline; a second
// construction attempt fails at constructor time instead of silently
// sharing hidden process-wide state.
type RunState struct {
	mu      sync.Mutex
	claimed bool
}

// NewRunState returns an unclaimed state.
func NewRunState() *RunState {
	return &RunState{}
}

func (s *RunState) claim() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return fmt.Errorf("run state already owns a pipeline")
	}
	s.claimed = true
	return nil
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.EventSource
	Enricher   *enrich.Enricher
	Aggregator *aggregate.Aggregator
	Builder    *report.Builder
	Publisher  ports.Publisher
	Repository ports.RunRepository
	Logger     *slog.Logger
}

// Pipeline implements the stargazer analytics workflow:
// fetch -> enrich -> aggregate -> build -> publish.
type Pipeline struct {
	cfg        config.PipelineConfig
	source     ports.EventSource
	enricher   *enrich.Enricher
	aggregator *aggregate.Aggregator
	builder    *report.Builder
	publisher  ports.Publisher
	repository ports.RunRepository
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component, claiming state.
func NewPipeline(cfg config.PipelineConfig, deps PipelineDeps, state *RunState) (*Pipeline, error) {
	if state == nil {
		return nil, fmt.Errorf("pipeline requires a run state")
	}
	if err := state.claim(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		source:     deps.Source,
		enricher:   deps.Enricher,
		aggregator: deps.Aggregator,
		builder:    deps.Builder,
		publisher:  deps.Publisher,
		repository: deps.Repository,
		logger:     deps.Logger,
	}, nil
}

// Run executes one full pipeline pass as of now. On publish failure the
// returned result still carries the built artifact, so the caller can
// retry publishing without recomputation. Cancellation is honored at
// every stage boundary.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (result domain.RunResult, err error) {
	result = domain.RunResult{
		ID:        uuid.NewString(),
		Repo:      p.cfg.Repo,
		StartedAt: now.UTC(),
	}
	// FinishedAt is stamped in one place so failed runs report their
	// duration too; the success path sets it before persistence.
	defer func() {
		if result.FinishedAt.IsZero() {
			result.FinishedAt = time.Now().UTC()
		}
	}()

	var since time.Time
	if p.cfg.LookbackWeeks > 0 {
		since = now.UTC().AddDate(0, 0, -7*p.cfg.LookbackWeeks)
	}

	events, err := p.source.StarEvents(ctx, p.cfg.Repo, since)
	if err != nil {
		return result, fmt.Errorf("fetch star events: %w", err)
	}
	events = dedupeEvents(filterSince(events, since))
	p.info("star events fetched", "repo", p.cfg.Repo, "events", len(events))

	if err := ctx.Err(); err != nil {
		return result, err
	}

	profiles, err := p.enricher.Enrich(ctx, userIDs(events))
	if err != nil {
		return result, fmt.Errorf("enrich users: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	buckets, err := p.aggregator.Aggregate(events, profiles)
	if err != nil {
		return result, fmt.Errorf("aggregate weeks: %w", err)
	}
	result.Buckets = buckets

	if err := ctx.Err(); err != nil {
		return result, err
	}

	artifact, err := p.builder.Build(buckets)
	if err != nil {
		return result, fmt.Errorf("build report: %w", err)
	}
	result.Artifact = &artifact

	url, err := p.publisher.Publish(ctx, artifact, p.cfg.GistID)
	if err != nil {
		return result, fmt.Errorf("publish report: %w", err)
	}
	result.URL = url
	result.FinishedAt = time.Now().UTC()
	p.info("report published", "run", result.ID, "url", url, "buckets", len(buckets))

	if p.repository != nil {
		if err := p.repository.SaveRun(ctx, result); err != nil {
			return result, fmt.Errorf("persist run %s: %w", result.ID, err)
		}
	}

	return result, nil
}

// filterSince drops events outside the lookback window; the source may
// return more than requested.
func filterSince(events []domain.StarEvent, since time.Time) []domain.StarEvent {
	if since.IsZero() {
		return events
	}
	filtered := events[:0]
	for _, event := range events {
		if !event.StarredAt.Before(since) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// dedupeEvents collapses duplicate (user, starred-at) rows, so overlapping
// ingestion windows do not inflate the weekly counts.
func dedupeEvents(events []domain.StarEvent) []domain.StarEvent {
	type eventKey struct {
		user      string
		starredAt time.Time
	}
	seen := make(map[eventKey]struct{}, len(events))
	unique := events[:0]
	for _, event := range events {
		key := eventKey{user: event.UserID, starredAt: event.StarredAt.UTC()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, event)
	}
	return unique
}

func userIDs(events []domain.StarEvent) []string {
	ids := make([]string, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.UserID)
	}
	return ids
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
