package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"cargo-recon/internal/reconcile/model"
	"cargo-recon/internal/utils"
)

const (
	minQuantity = 1
	maxQuantity = 999
	maxWeight   = 10000
)

// "Lee Hanna(SiemReap)" -> "Lee Hanna", "SiemReap"
var reRegionSuffix = regexp.MustCompile(`^(.*?)\s*[(（]([^()（）]+)[)）]\s*$`)

// Extract classifies the cells of one data row. ok is false when no name
// could be resolved; the caller records that as a warning.
func (d *Dictionary) Extract(rowIndex int, cells []string) (model.ParsedItem, bool) {
	item := model.ParsedItem{RowIndex: rowIndex, Cells: cells, Quantity: 1}
	var (
		qtySet    bool
		weightSet bool
		nameFound bool
		rest      []string
	)

	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		// 1) courier
		if c, ok := d.courier(cell); ok {
			if item.Courier == "" {
				item.Courier = c
			}
			continue
		}
		// 2) quantity
		if !qtySet {
			if q, ok := utils.ParseUint(cell); ok && q >= minQuantity && q <= maxQuantity {
				item.Quantity = q
				qtySet = true
				continue
			}
		}
		// 3) weight
		if !weightSet {
			if w, ok := utils.ParseDecimal(cell); ok && w > 0 && w < maxWeight {
				item.Weight = w
				weightSet = true
				continue
			}
		}
		// 4) phone
		if item.Phone == "" {
			if p := d.findPhone(cell); p != "" {
				item.Phone = p
				continue
			}
		}
		// 5) name
		if !nameFound && looksLikeName(cell) {
			item.Name, item.Region = SplitRegion(cell)
			nameFound = true
			continue
		}
		// 6) remainder
		if nameFound {
			rest = append(rest, cell)
		}
	}

	if !nameFound {
		for _, cell := range cells {
			cell = strings.TrimSpace(cell)
			if cell == "" || utils.IsNumeric(cell) {
				continue
			}
			if _, isCourier := d.courier(cell); isCourier {
				continue
			}
			item.Name, item.Region = SplitRegion(cell)
			nameFound = true
			break
		}
	}

	// a phone number may have been split across two cells
	if item.Phone == "" {
		item.Phone = d.findPhone(strings.Join(cells, " "))
	}

	item.Remainder = strings.Join(rest, " ")
	return item, nameFound
}

func looksLikeName(cell string) bool {
	n := utf8.RuneCountInString(cell)
	if n < 2 || utils.IsNumeric(cell) {
		return false
	}
	return hasHangul(cell) || n >= 3
}

func hasHangul(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// SplitRegion pulls a trailing parenthetical off a name cell.
func SplitRegion(cell string) (name, region string) {
	m := reRegionSuffix.FindStringSubmatch(cell)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return collapseSpaces(cell), ""
	}
	return collapseSpaces(m[1]), strings.TrimSpace(m[2])
}
