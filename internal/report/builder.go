package report

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"StarReport/internal/domain"
)

const (
	// ArtifactVersion tags the artifact layout; viewers can refuse
	// documents they do not understand.
	ArtifactVersion = 1

	artifactFileName = "notebook.ipynb"
	nbFormat         = 4
	nbFormatMinor    = 5
)

// Builder assembles the weekly series into a notebook artifact: a
// narrative, the embedded series blob, and one pre-rendered chart per
// directive. Build validates every directive against the embedded blob,
// so a structurally broken artifact never reaches the publisher.
type Builder struct {
	repo   string
	charts []ChartDirective
	logger *slog.Logger
}

// NewBuilder configures the default charts: total and fake stars by week
// over the trailing display window.
func NewBuilder(repo string, displayBuckets int, log *slog.Logger) *Builder {
	return &Builder{
		repo: repo,
		charts: []ChartDirective{
			{Title: "Stars by Week", Kind: "bar", X: ColumnWeekStart, Y: ColumnTotal, Trailing: displayBuckets},
			{Title: "Fake Stars by Week", Kind: "bar", X: ColumnWeekStart, Y: ColumnFake, Trailing: displayBuckets},
		},
		logger: log,
	}
}

// WithCharts replaces the default chart directives.
func (b *Builder) WithCharts(charts []ChartDirective) *Builder {
	b.charts = charts
	return b
}

// Build produces the artifact. Any failure while embedding the series or
// rendering a chart wraps domain.ErrArtifactBuild and aborts the run.
func (b *Builder) Build(buckets []domain.WeekBucket) (domain.ReportArtifact, error) {
	blob, err := encodeSeries(buckets)
	if err != nil {
		return domain.ReportArtifact{}, fmt.Errorf("embed series: %v: %w", err, domain.ErrArtifactBuild)
	}

	// Round-trip through the blob before rendering: charts are drawn from
	// the decoded rows, proving the embedded payload is re-loadable.
	decoded, err := decodeSeries(blob)
	if err != nil {
		return domain.ReportArtifact{}, fmt.Errorf("reload series: %v: %w", err, domain.ErrArtifactBuild)
	}
	if len(decoded) != len(buckets) {
		return domain.ReportArtifact{}, fmt.Errorf("reload series: got %d rows, want %d: %w",
			len(decoded), len(buckets), domain.ErrArtifactBuild)
	}

	nb := notebook{
		Metadata:      notebookMetadata(b.repo),
		NBFormat:      nbFormat,
		NBFormatMinor: nbFormatMinor,
	}
	nb.addMarkdown(fmt.Sprintf("# GitHub Stars: %s", b.repo))
	nb.addRaw(string(blob))

	for _, directive := range b.charts {
		markup, err := renderBarChart(directive, decoded)
		if err != nil {
			return domain.ReportArtifact{}, fmt.Errorf("render chart %q: %v: %w", directive.Title, err, domain.ErrArtifactBuild)
		}
		if err := verifyChart(directive, markup, decoded); err != nil {
			return domain.ReportArtifact{}, fmt.Errorf("validate chart %q: %v: %w", directive.Title, err, domain.ErrArtifactBuild)
		}

		nb.addMarkdown(fmt.Sprintf("## %s", directive.Title))
		nb.addChart(directive, markup)
	}

	content, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return domain.ReportArtifact{}, fmt.Errorf("encode notebook: %v: %w", err, domain.ErrArtifactBuild)
	}

	if b.logger != nil {
		b.logger.Debug("artifact built", "buckets", len(buckets), "charts", len(b.charts), "bytes", len(content))
	}

	return domain.ReportArtifact{
		Version:  ArtifactVersion,
		FileName: artifactFileName,
		Content:  content,
	}, nil
}

// notebook is the minimal nbformat v4 document shape the builder emits.
type notebook struct {
	Cells         []cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type cell struct {
	ID             string         `json:"id"`
	CellType       string         `json:"cell_type"`
	Metadata       map[string]any `json:"metadata"`
	Source         []string       `json:"source"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
	Outputs        []cellOutput   `json:"outputs,omitempty"`
}

type cellOutput struct {
	OutputType string            `json:"output_type"`
	Data       map[string]string `json:"data"`
	Metadata   map[string]any    `json:"metadata"`
}

func notebookMetadata(repo string) map[string]any {
	return map[string]any{
		"starreport": map[string]any{
			"version": ArtifactVersion,
			"repo":    repo,
		},
	}
}

func (n *notebook) addMarkdown(text string) {
	n.Cells = append(n.Cells, cell{
		ID:       uuid.NewString(),
		CellType: "markdown",
		Metadata: map[string]any{},
		Source:   []string{text},
	})
}

func (n *notebook) addRaw(text string) {
	n.Cells = append(n.Cells, cell{
		ID:       uuid.NewString(),
		CellType: "raw",
		Metadata: map[string]any{"starreport": "series"},
		Source:   []string{text},
	})
}

func (n *notebook) addChart(directive ChartDirective, markup string) {
	source, _ := json.Marshal(directive)
	count := 1
	n.Cells = append(n.Cells, cell{
		ID:             uuid.NewString(),
		CellType:       "code",
		Metadata:       map[string]any{"starreport": "chart"},
		Source:         []string{string(source)},
		ExecutionCount: &count,
		Outputs: []cellOutput{{
			OutputType: "display_data",
			Data:       map[string]string{"image/svg+xml": markup},
			Metadata:   map[string]any{},
		}},
	})
}
