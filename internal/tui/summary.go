package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/bdrun/bdrun/internal/domain"
)

const locationColumnWidth = 48

// Summary renders the per-item outcome table for a finished run.
type Summary struct {
	w      io.Writer
	styles *OutputStyles
}

// NewSummary creates a Summary writing to w.
func NewSummary(w io.Writer) *Summary {
	return &Summary{
		w:      w,
		styles: NewOutputStyles(),
	}
}

// Render writes one row per work item plus a totals line.
// Rows appear in item order, so re-runs line up for comparison.
func (s *Summary) Render(outcome *domain.RunOutcome) {
	header := fmt.Sprintf("  %-6s %-*s %8s %10s", "STATUS", locationColumnWidth, "ITEM", "EXIT", "DURATION")
	_, _ = fmt.Fprintln(s.w, s.styles.Header.Render(header))

	for _, res := range outcome.Results {
		s.renderRow(res)
	}

	passed, failed := outcome.Counts()
	totals := fmt.Sprintf("%d passed, %d failed, %d total in %s",
		passed, failed, len(outcome.Results), formatDuration(outcome.Duration))
	if failed == 0 {
		_, _ = fmt.Fprintln(s.w, s.styles.Success.Render("✓ "+totals))
	} else {
		_, _ = fmt.Fprintln(s.w, s.styles.Error.Render("✗ "+totals))
	}
}

func (s *Summary) renderRow(res domain.WorkerResult) {
	status := s.styles.Success.Render("✓ PASS")
	if !res.Passed() {
		status = s.styles.Error.Render("✗ FAIL")
	}

	location := res.Item.Location()
	if len(location) > locationColumnWidth {
		location = location[:locationColumnWidth-1] + "…"
	}

	row := fmt.Sprintf("  %s %-*s %8d %10s",
		status, locationColumnWidth, location, res.ExitCode, formatDuration(res.Duration))
	_, _ = fmt.Fprintln(s.w, row)

	if res.ErrMessage != "" {
		_, _ = fmt.Fprintln(s.w, s.styles.Dim.Render("         "+res.ErrMessage))
	}
}

// formatDuration rounds to a tenth of a second for display.
func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
