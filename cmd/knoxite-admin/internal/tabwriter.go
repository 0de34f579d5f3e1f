package internal

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TabWriter prints rows of named columns aligned on tab stops.
type TabWriter struct {
	writer     *tabwriter.Writer
	headers    []string
	hideHeader bool
}

// NewTabWriter returns a TabWriter writing to w.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		writer: tabwriter.NewWriter(w, 0, 8, 1, '\t', 0),
	}
}

// HideHeaders omits the header line.
func (w *TabWriter) HideHeaders(b bool) {
	w.hideHeader = b
}

// WriteHeaders sets the columns and prints the header line.
func (w *TabWriter) WriteHeaders(h ...string) {
	w.headers = h
	if w.hideHeader {
		return
	}
	fmt.Fprintln(w.writer, strings.Join(h, "\t"))
}

// Write prints one row. Columns missing from m are left empty.
func (w *TabWriter) Write(m map[string]interface{}) {
	cols := make([]string, len(w.headers))
	for i, h := range w.headers {
		if v, ok := m[h]; ok && v != nil {
			cols[i] = fmt.Sprint(v)
		}
	}
	fmt.Fprintln(w.writer, strings.Join(cols, "\t"))
}

// Flush writes out the buffered rows.
func (w *TabWriter) Flush() error {
	return w.writer.Flush()
}
