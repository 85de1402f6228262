// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/hmm/internal/types"
)

// Writer handles output in the specified format.
type Writer struct {
	format types.OutputFormat
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format types.OutputFormat) *Writer {
	if format == "" {
		format = types.OutputText
	}
	return &Writer{format: format, w: w}
}

// IsText reports whether output is human-readable text.
func (w *Writer) IsText() bool {
	return w.format == types.OutputText
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case types.OutputJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case types.OutputYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		// Text format - assume v implements fmt.Stringer or use default
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// Text writes a pre-rendered line in text mode and is a no-op otherwise.
func (w *Writer) Text(s string) error {
	if !w.IsText() {
		return nil
	}
	_, err := fmt.Fprintln(w.w, s)
	return err
}
