package service

import "unicode/utf8"

// Similarity compares two names after NormalizeName: 1 on equality, 0 when either
// side is empty, otherwise (maxLen - editDistance) / maxLen.
func Similarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	m := utf8.RuneCountInString(na)
	if l := utf8.RuneCountInString(nb); l > m {
		m = l
	}
	return float64(m-levenshtein(na, nb)) / float64(m)
}
