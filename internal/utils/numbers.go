package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rxUint    = regexp.MustCompile(`^\d+$`)
	rxDecimal = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	rxNumeric = regexp.MustCompile(`^[\d\s.,\-+()]+$`)
)

// ParseUint accepts a cell made only of digits.
func ParseUint(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !rxUint.MatchString(s) {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

// ParseDecimal accepts "150", "150.0", "1,234.5" (thousands commas are dropped).
func ParseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if !rxDecimal.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// IsNumeric reports whether s holds digits and number punctuation only.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && rxNumeric.MatchString(s)
}
