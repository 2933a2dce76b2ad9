package service

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Parenthetical content (regions) in ASCII, full-width or square brackets.
var reParens = regexp.MustCompile(`\([^()]*\)|（[^（）]*）|\[[^\[\]]*\]`)

var reWhitespace = regexp.MustCompile(`[\s\p{Zs}]+`)

var reNonDigit = regexp.MustCompile(`\D+`)

// Punctuation removed from names before comparison.
const namePunct = `.,-_'"/\·~!?:;&*#@+`

// NormalizeName: NFC, lower case, no parentheticals, no whitespace, no punctuation.
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}
	out := norm.NFC.String(s)
	out = strings.ToLower(out)
	out = reParens.ReplaceAllString(out, "")
	out = reWhitespace.ReplaceAllString(out, "")
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(namePunct, r) {
			return -1
		}
		return r
	}, out)
}

// NormalizePhone keeps digits only. Phone-keyed logic requires minPhoneDigits of them.
func NormalizePhone(s string) string {
	return reNonDigit.ReplaceAllString(s, "")
}

// UsablePhone reports whether a normalized phone is long enough to key on.
func UsablePhone(p string) bool { return len(p) >= minPhoneDigits }

// normalizeRegion: lower case without whitespace.
func normalizeRegion(s string) string {
	return strings.ToLower(reWhitespace.ReplaceAllString(norm.NFC.String(s), ""))
}

func regionsMatch(a, b string) bool {
	na, nb := normalizeRegion(a), normalizeRegion(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
