package edi

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the CCYYMMDDHHMM form (format qualifier 203).
	DateLayout = "200601021504"
	// DisplayLayout is how converted dates are rendered.
	DisplayLayout = "2006-01-02 15:04"
)

// Number parses a non-negative, finite decimal. ok is false for empty or
// malformed input and v is then 0.
func Number(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

// NumberOr is Number with a caller supplied default. The bool reports
// whether s itself was used.
func NumberOr(s string, def float64) (float64, bool) {
	if v, ok := Number(s); ok {
		return v, true
	}
	return def, false
}

// Unquote removes stray quote characters left over from segment terminators
// and release characters.
func Unquote(s string) string {
	return strings.NewReplacer("'", "", `"`, "").Replace(s)
}

// Date converts CCYYMMDDHHMM to DisplayLayout. Anything else is passed
// through unchanged with ok=false.
func Date(s string) (string, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return s, false
	}
	return t.Format(DisplayLayout), true
}
