package domain

import "time"

// StarEvent is a core entity describing one user starring the repository.
// Events are identified by (UserID, StarredAt); the pipeline collapses
// duplicates from overlapping ingestion windows before aggregation.
type StarEvent struct {
	UserID    string
	StarredAt time.Time
}

// UserProfile carries the account metadata resolved for one stargazer.
// Resolved is false when the lookup failed; such profiles still count
// toward weekly totals but never toward the fake classification.
type UserProfile struct {
	UserID    string
	CreatedAt time.Time
	Resolved  bool
}

// WeekBucket summarizes star events within one calendar week.
type WeekBucket struct {
	WeekStart time.Time
	Real      int
	Fake      int
	Total     int
}

// ReportArtifact is the built notebook document, immutable once built.
type ReportArtifact struct {
	Version  int
	FileName string
	Content  []byte
}

// RunResult captures everything one pipeline execution produced. The
// artifact stays attached even when publishing fails, so callers can
// retry the publish without recomputing.
type RunResult struct {
	ID         string
	Repo       string
	Buckets    []WeekBucket
	Artifact   *ReportArtifact
	URL        string
	StartedAt  time.Time
	FinishedAt time.Time
}
