package enrich

import (
	"log/slog"

	"StarReport/internal/ports"
)

// LogProgress reports enrichment progress through slog, roughly one line
// per tenth of the batch plus the final count.
type LogProgress struct {
	logger *slog.Logger
}

var _ ports.ProgressSink = (*LogProgress)(nil)

// NewLogProgress wraps a logger into a progress sink.
func NewLogProgress(log *slog.Logger) *LogProgress {
	return &LogProgress{logger: log}
}

// OnProgress logs milestone counts; it never blocks the workers.
func (p *LogProgress) OnProgress(completed, total int) {
	if p.logger == nil || total == 0 {
		return
	}

	step := total / 10
	if step == 0 {
		step = 1
	}
	if completed%step == 0 || completed == total {
		p.logger.Info("enrichment progress", "completed", completed, "total", total)
	}
}
