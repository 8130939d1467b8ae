package codegen

import (
	"fmt"
	"strings"
)

// Writer accumulates indented source lines.
type Writer struct {
	sb     strings.Builder
	indent int
}

// Line writes one formatted line at the current indentation.
func (w *Writer) Line(format string, args ...any) {
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("    ")
	}
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() {
	w.sb.WriteByte('\n')
}

// Indent increases the indentation by one level.
func (w *Writer) Indent() { w.indent++ }

// Dedent decreases the indentation by one level.
func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

// Nested runs body one indentation level deeper.
func (w *Writer) Nested(body func() error) error {
	w.Indent()
	defer w.Dedent()
	if body == nil {
		return nil
	}
	return body()
}

// String returns everything written so far.
func (w *Writer) String() string {
	return w.sb.String()
}
