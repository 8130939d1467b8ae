package codegen

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v in plain decimal notation that always contains a decimal point,
// so that shading languages never parse it as an integer. Exponent notation is never used.
//
// Parameters:
//   - v: the value to render
//
// Returns:
//   - string: e.g. "1.0", "0.5", "-3.25", "100000000000000000000.0"
func FormatFloat(v float32) string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "(0.0 / 0.0)"
	case math.IsInf(f, 1):
		return "(1.0 / 0.0)"
	case math.IsInf(f, -1):
		return "(-1.0 / 0.0)"
	}
	s := strconv.FormatFloat(f, 'f', -1, 32)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
