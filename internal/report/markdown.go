package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/uiscout/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// maxElements limits the rows of each per-page element table.
	// Zero means no limit.
	maxElements int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMaxElements limits how many elements are listed per page.
func WithMaxElements(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if n >= 0 {
			w.maxElements = n
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStats(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("uiscout Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.SeedURL + "`"},
			{"Crawl Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Page Budget", strconv.Itoa(report.PageBudget)},
			{"Pages", strconv.Itoa(len(report.Pages))},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText decorates the crawl status.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	status := statusText(report)
	switch {
	case report.TimedOut:
		return "⚠️ " + status
	case !report.Succeeded():
		return "❌ " + status
	default:
		return "✅ " + status
	}
}

// writeStats writes how the page budget was spent.
func (w *MarkdownWriter) writeStats(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawl Statistics")
	md.PlainText("")

	s := report.Stats
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Same-domain candidates", strconv.Itoa(s.Candidates)},
			{"Filtered", strconv.Itoa(s.Filtered)},
			{"Attempted", strconv.Itoa(s.Attempted)},
			{"Admitted", strconv.Itoa(s.Admitted)},
			{"Duplicates", strconv.Itoa(s.Duplicates)},
			{"Failed", strconv.Itoa(s.Failed)},
		},
	})
	md.PlainText("")

	switch {
	case !report.Succeeded():
		md.Cautionf("The crawl did not complete: %s", statusText(report))
	case s.Failed > 0:
		md.Warningf("%d secondary page(s) could not be fetched and were skipped.", s.Failed)
	case s.Duplicates > 0:
		md.Note(fmt.Sprintf("%d page(s) shared an interactive shape with an earlier page and were dropped.", s.Duplicates))
	default:
		md.Tip("Every attempted page was admitted.")
	}
	md.PlainText("")
}

// writeSummary writes the element count per kind with a pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Element Summary")
	md.PlainText("")

	summary := summaryOf(report)
	if len(summary) == 0 {
		md.PlainText("No interactive elements found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary)+1)
	for _, c := range summary {
		rows = append(rows, []string{KindLabel(c.Kind), strconv.Itoa(c.Count)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.Total()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, summary)
}

// writePieChart writes a mermaid pie chart for the kind distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.KindSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Element Kind Distribution"),
		piechart.WithShowData(true),
	)

	for _, c := range summary {
		chart.LabelAndIntValue(KindLabel(c.Kind), uint64(c.Count)) //nolint:gosec // counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes one section per page with its element table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Pages")
	md.PlainText("")

	if len(report.Pages) == 0 {
		md.PlainText("No pages were analyzed.")
		md.PlainText("")
		return
	}

	for i, page := range report.Pages {
		title := page.Title
		if title == "" {
			title = page.Path
		}
		md.PlainTextf("### %d. %s", i+1, title)
		md.PlainText("")
		md.BulletList(
			"URL: `"+page.URL+"`",
			"Fingerprint: `"+truncateString(page.Fingerprint, 16)+"`",
			"Elements: "+strconv.Itoa(len(page.Elements)),
		)
		md.PlainText("")

		w.writeElementsTable(md, page.Elements)
	}
}

// writeElementsTable writes a table of elements with their selectors.
func (w *MarkdownWriter) writeElementsTable(md *markdown.Markdown, elements []model.Element) {
	if len(elements) == 0 {
		md.PlainText("No interactive elements.")
		md.PlainText("")
		return
	}

	shown := elements
	if w.maxElements > 0 && len(shown) > w.maxElements {
		shown = shown[:w.maxElements]
	}

	rows := make([][]string, len(shown))
	for i, e := range shown {
		rows[i] = []string{
			KindLabel(e.Kind),
			"`" + escapeCell(e.Selector) + "`",
			orDash(escapeCell(truncateString(e.Text, 40))),
			orDash(escapeCell(truncateString(detailText(e), 60))),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Selector", "Text", "Details"},
		Rows:   rows,
	})
	md.PlainText("")

	if hidden := len(elements) - len(shown); hidden > 0 {
		md.PlainTextf("*%d more element(s) omitted.*", hidden)
		md.PlainText("")
	}
}

// WriteDiff outputs a crawl comparison in Markdown format.
func (w *MarkdownWriter) WriteDiff(diff *model.CrawlDiff) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Comparison: " + diff.SeedURL)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Change", "Pages"},
		Rows: [][]string{
			{"Added", strconv.Itoa(len(diff.Added))},
			{"Removed", strconv.Itoa(len(diff.Removed))},
			{"Changed", strconv.Itoa(len(diff.Changed))},
			{"Unchanged", strconv.Itoa(diff.Unchanged)},
		},
	})
	md.PlainText("")

	if !diff.HasChanges() {
		md.Tip("No structural changes between the two crawls.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	if len(diff.Added) > 0 {
		md.H2("Added Pages")
		md.PlainText("")
		md.BulletList(codeSpans(diff.Added)...)
		md.PlainText("")
	}
	if len(diff.Removed) > 0 {
		md.H2("Removed Pages")
		md.PlainText("")
		md.BulletList(codeSpans(diff.Removed)...)
		md.PlainText("")
	}
	if len(diff.Changed) > 0 {
		md.H2("Changed Pages")
		md.PlainText("")
		for _, c := range diff.Changed {
			md.PlainTextf("### `%s`", c.URL)
			md.PlainText("")
			items := make([]string, 0, len(c.AddedSignatures)+len(c.RemovedSignatures))
			for _, s := range c.AddedSignatures {
				items = append(items, "➕ `"+s+"`")
			}
			for _, s := range c.RemovedSignatures {
				items = append(items, "➖ `"+s+"`")
			}
			if len(items) > 0 {
				md.BulletList(items...)
			} else {
				md.PlainText("Repeated elements were added or removed.")
			}
			md.PlainText("")
		}
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [uiscout](https://github.com/nao1215/uiscout)*")
}

// escapeCell keeps pipes from splitting table cells.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func codeSpans(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "`" + v + "`"
	}
	return out
}
