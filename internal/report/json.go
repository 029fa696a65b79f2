package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/uiscout/internal/model"
)

// JSONWriter emits the page list consumed by test generators:
// {"pages":[...]}, seed page first. Element encoding is owned by
// model.Element's MarshalJSON, so the writer stays on encoding/json.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents output like json.MarshalIndent. An empty indent
// keeps the output on one line.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents nested values by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact by default.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// PageList is the generator-facing document. Pages[0] is the seed page.
type PageList struct {
	Pages []*model.Page `json:"pages"`
}

// Write outputs the crawl result as a page list.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	pages := report.Pages
	if pages == nil {
		pages = make([]*model.Page, 0)
	}
	return w.writeJSON(PageList{Pages: pages})
}

// WriteDiff outputs the diff as JSON.
func (w *JSONWriter) WriteDiff(diff *model.CrawlDiff) (int, error) {
	return w.writeJSON(diff)
}

// writeJSON encodes v followed by a newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(w.prefix, w.indent)
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is the --full document: the stored report plus the tool
// version and the per-kind totals.
type JSONReport struct {
	Version string             `json:"version"`
	Report  *model.CrawlReport `json:"report"`
	Summary model.KindSummary  `json:"summary,omitempty"`
}

// NewJSONReport wraps report, computing the summary when the pipeline did not.
func NewJSONReport(report *model.CrawlReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  report,
		Summary: summaryOf(report),
	}
}

// FullJSONWriter emits JSONReport documents. Diffs are written as by JSONWriter.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamped with version.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write emits the whole report, stats and timing included.
func (w *FullJSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
