package report

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"StarReport/internal/domain"
)

const (
	chartBarWidth  = 8
	chartBarGap    = 2
	chartHeight    = 160
	chartPadBottom = 4
)

// renderBarChart draws one bar per bucket as inline SVG. The markup is
// self-contained, so the artifact renders in any notebook viewer without a
// kernel.
func renderBarChart(directive ChartDirective, buckets []domain.WeekBucket) (string, error) {
	if directive.Kind != "bar" {
		return "", fmt.Errorf("unsupported chart kind %q", directive.Kind)
	}
	if directive.X != ColumnWeekStart {
		return "", fmt.Errorf("unsupported chart x column %q", directive.X)
	}
	value, err := columnValue(directive.Y)
	if err != nil {
		return "", err
	}

	if directive.Trailing > 0 && len(buckets) > directive.Trailing {
		buckets = buckets[len(buckets)-directive.Trailing:]
	}

	max := 1
	for _, b := range buckets {
		if v := value(b); v > max {
			max = v
		}
	}

	width := len(buckets) * (chartBarWidth + chartBarGap)
	if width == 0 {
		width = chartBarWidth
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, width, chartHeight)
	fmt.Fprintf(&svg, "<title>%s</title>", directive.Title)
	for i, b := range buckets {
		v := value(b)
		barHeight := v * (chartHeight - chartPadBottom) / max
		x := i * (chartBarWidth + chartBarGap)
		y := chartHeight - chartPadBottom - barHeight
		fmt.Fprintf(&svg,
			`<rect x="%d" y="%d" width="%d" height="%d" data-week="%s" data-value="%d"/>`,
			x, y, chartBarWidth, barHeight, b.WeekStart.Format("2006-01-02"), v)
	}
	svg.WriteString("</svg>")

	return svg.String(), nil
}

// verifyChart parses the rendered markup back and checks its structure:
// one bar per bucket in the directive's window, carrying the title. This
// is the build-time half of the execution pass; a chart that fails here
// would also fail in a viewer.
func verifyChart(directive ChartDirective, markup string, buckets []domain.WeekBucket) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parse rendered chart: %w", err)
	}

	want := len(buckets)
	if directive.Trailing > 0 && want > directive.Trailing {
		want = directive.Trailing
	}

	if got := doc.Find("rect").Length(); got != want {
		return fmt.Errorf("chart %q rendered %d bars, want %d", directive.Title, got, want)
	}
	if title := doc.Find("title").First().Text(); title != directive.Title {
		return fmt.Errorf("chart title mismatch: got %q, want %q", title, directive.Title)
	}

	return nil
}
