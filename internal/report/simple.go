package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/uiscout/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose lists every element of every page instead of counts only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStats(&sb, report)
	w.writeSummary(&sb, report)
	w.writePages(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          UISCOUT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed URL:       %s\n", report.SeedURL)
	fmt.Fprintf(sb, "Crawl Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages:          %d of %d\n", len(report.Pages), report.PageBudget)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeStats writes how the page budget was spent.
func (w *SimpleWriter) writeStats(sb *strings.Builder, report *model.CrawlReport) {
	writeSection(sb, "CRAWL STATISTICS")

	s := report.Stats
	fmt.Fprintf(sb, "  Candidates:  %d\n", s.Candidates)
	fmt.Fprintf(sb, "  Filtered:    %d\n", s.Filtered)
	fmt.Fprintf(sb, "  Attempted:   %d\n", s.Attempted)
	fmt.Fprintf(sb, "  Admitted:    %d\n", s.Admitted)
	fmt.Fprintf(sb, "  Duplicates:  %d\n", s.Duplicates)
	fmt.Fprintf(sb, "  Failed:      %d\n", s.Failed)
	sb.WriteString("\n")
}

// writeSummary writes the element count per kind.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	writeSection(sb, "ELEMENT SUMMARY")

	summary := summaryOf(report)
	if len(summary) == 0 {
		sb.WriteString("  No interactive elements found\n\n")
		return
	}

	for _, c := range summary {
		fmt.Fprintf(sb, "  %-13s %d\n", KindLabel(c.Kind)+":", c.Count)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  %-13s %d elements\n", "TOTAL:", summary.Total())
	sb.WriteString("\n")
}

// writePages writes one entry per page.
func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Pages) == 0 {
		return
	}

	writeSection(sb, "PAGES")

	for i, page := range report.Pages {
		fmt.Fprintf(sb, "[%d] %s\n", i+1, page.URL)
		if page.Title != "" {
			fmt.Fprintf(sb, "    Title: %s\n", page.Title)
		}
		fmt.Fprintf(sb, "    Elements: %d\n", len(page.Elements))

		if !w.verbose {
			continue
		}
		for _, e := range page.Elements {
			line := fmt.Sprintf("      - %-11s %s", e.Kind, e.Selector)
			if e.Text != "" {
				line += fmt.Sprintf(" %q", truncateString(e.Text, 40))
			}
			if d := detailText(e); d != "" {
				line += " (" + d + ")"
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
}

// WriteDiff outputs a crawl comparison in human-readable format.
func (w *SimpleWriter) WriteDiff(diff *model.CrawlDiff) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "CRAWL COMPARISON: %s\n", diff.SeedURL)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "  Added:      %d\n", len(diff.Added))
	fmt.Fprintf(&sb, "  Removed:    %d\n", len(diff.Removed))
	fmt.Fprintf(&sb, "  Changed:    %d\n", len(diff.Changed))
	fmt.Fprintf(&sb, "  Unchanged:  %d\n", diff.Unchanged)
	sb.WriteString("\n")

	if !diff.HasChanges() {
		sb.WriteString("No structural changes.\n")
	}
	for _, u := range diff.Added {
		fmt.Fprintf(&sb, "  [+] %s\n", u)
	}
	for _, u := range diff.Removed {
		fmt.Fprintf(&sb, "  [-] %s\n", u)
	}
	for _, c := range diff.Changed {
		fmt.Fprintf(&sb, "  [~] %s\n", c.URL)
		for _, s := range c.AddedSignatures {
			fmt.Fprintf(&sb, "        + %s\n", s)
		}
		for _, s := range c.RemovedSignatures {
			fmt.Fprintf(&sb, "        - %s\n", s)
		}
	}

	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by uiscout\n")
	sb.WriteString("https://github.com/nao1215/uiscout\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeSection writes a dashed section title.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
