package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/uiscout/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
// Implementations write crawl results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the crawl report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)

	// WriteDiff outputs the difference between two crawls of one seed.
	WriteDiff(diff *model.CrawlDiff) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDiff outputs the diff to all configured Writers.
func (m *MultiWriter) WriteDiff(diff *model.CrawlDiff) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiff(diff)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// KindLabel returns the display label of a kind, e.g. "Checkbox".
// A Caser is stateful, so one is created per call.
func KindLabel(kind model.Kind) string {
	return cases.Title(language.English).String(kind.String())
}

// statusText describes how a crawl ended.
func statusText(report *model.CrawlReport) string {
	switch {
	case report.TimedOut:
		return "Timed out"
	case report.ErrorMessage != "":
		return "Error - " + report.ErrorMessage
	case report.Error != nil:
		return "Error - " + report.Error.Error()
	default:
		return "Complete"
	}
}

// summaryOf returns the report's kind summary, computing it when the
// summarize step did not run.
func summaryOf(report *model.CrawlReport) model.KindSummary {
	if len(report.Summary) > 0 {
		return report.Summary
	}
	return model.NewKindSummary(report.Pages)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// detailText renders the kind-specific fields of an element on one line.
func detailText(e model.Element) string {
	switch d := e.Detail.(type) {
	case model.LinkDetail:
		return "href=" + d.Href
	case model.InputDetail:
		return joinNonEmpty("type="+d.InputType, prefixed("name=", d.Name), prefixed("placeholder=", d.Placeholder))
	case model.ToggleDetail:
		return joinNonEmpty(prefixed("name=", d.Name), prefixed("value=", d.Value))
	case model.DropdownDetail:
		values := make([]string, 0, len(d.Options))
		for _, o := range d.Options {
			values = append(values, o.Value)
		}
		return joinNonEmpty(prefixed("name=", d.Name), "options="+strings.Join(values, ","))
	case model.FormDetail:
		return joinNonEmpty(prefixed("method=", d.Method), prefixed("action=", d.Action))
	case model.InteractiveDetail:
		return "role=" + d.Role
	case model.HeadingDetail:
		return "level=" + strconv.Itoa(d.Level)
	default:
		return ""
	}
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
