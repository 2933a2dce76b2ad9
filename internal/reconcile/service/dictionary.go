package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cargo-recon/internal/config"
)

type phonePattern struct {
	name string
	re   *regexp.Regexp
}

// Dictionary holds the compiled lookup tables used by the tokenizer and the
// extractor. It is immutable after NewDictionary.
type Dictionary struct {
	couriers       []string // lower case
	courierNames   []string // as configured
	headerKeywords []string // lower case
	phones         []phonePattern
}

func NewDictionary(raw config.Dictionary) (*Dictionary, error) {
	d := &Dictionary{}
	for _, c := range raw.Couriers {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		d.couriers = append(d.couriers, strings.ToLower(c))
		d.courierNames = append(d.courierNames, c)
	}
	for _, k := range raw.HeaderKeywords {
		if k = strings.TrimSpace(k); k != "" {
			d.headerKeywords = append(d.headerKeywords, strings.ToLower(k))
		}
	}
	for _, p := range raw.PhonePatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("phone pattern %q: %w", p.Name, err)
		}
		d.phones = append(d.phones, phonePattern{name: p.Name, re: re})
	}
	return d, nil
}

// MustDictionary is NewDictionary for tables known to be valid.
func MustDictionary(raw config.Dictionary) *Dictionary {
	d, err := NewDictionary(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// Words that may follow a courier name in the same cell ("한진택배", "CJ 택배").
var courierSuffixes = []string{"", "택배", "택배사", "특송", "로지스", "logis", "express"}

// courier reports the dictionary courier the cell names, if any. An exact
// name wins; then the longest name the cell starts with, when the rest of the
// cell is a courier suffix; then the shortest name the cell (2+ runes) is part
// of. A name that merely contains a courier token ("이한진") is not a courier.
func (d *Dictionary) courier(cell string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(cell))
	if c == "" {
		return "", false
	}
	for i, name := range d.couriers {
		if c == name {
			return d.courierNames[i], true
		}
	}

	best := -1
	for i, name := range d.couriers {
		if !strings.HasPrefix(c, name) || !isCourierSuffix(c[len(name):]) {
			continue
		}
		if best < 0 || len(name) > len(d.couriers[best]) {
			best = i
		}
	}
	if best >= 0 {
		return d.courierNames[best], true
	}

	if utf8.RuneCountInString(c) < 2 {
		return "", false
	}
	for i, name := range d.couriers {
		if !strings.Contains(name, c) {
			continue
		}
		if best < 0 || len(name) < len(d.couriers[best]) {
			best = i
		}
	}
	if best >= 0 {
		return d.courierNames[best], true
	}
	return "", false
}

func isCourierSuffix(rest string) bool {
	rest = strings.Trim(rest, " -_/()[].")
	for _, s := range courierSuffixes {
		if rest == s {
			return true
		}
	}
	return false
}

func (d *Dictionary) isHeaderCell(cell string) bool {
	c := strings.ToLower(cell)
	for _, k := range d.headerKeywords {
		if strings.Contains(c, k) {
			return true
		}
	}
	return false
}

// findPhone returns the first phone-shaped substring, trying patterns in order.
func (d *Dictionary) findPhone(s string) string {
	for _, p := range d.phones {
		if m := p.re.FindString(s); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
