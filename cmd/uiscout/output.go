package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/uiscout/internal/report"
)

// outputFormat selects the report writer.
type outputFormat struct {
	json     bool
	markdown bool
	full     bool
	verbose  bool
}

// newReportWriter returns the writer for the requested format.
// Plain text is the default.
func newReportWriter(w io.Writer, format outputFormat) report.Writer {
	switch {
	case format.json && format.full:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case format.json:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case format.markdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(format.verbose))
	}
}

// openOutput returns the report destination: path when set, stdout
// otherwise. The returned close function is always non-nil.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may echo cookies or tokens found in page attributes.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-selected path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
