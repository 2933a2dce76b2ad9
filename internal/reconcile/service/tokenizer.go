package service

import (
	"regexp"
	"strings"
	"unicode"

	"cargo-recon/internal/reconcile/model"
)

var reMultiSpace = regexp.MustCompile(`[ \p{Zs}]{2,}`)

// Table is the tokenized form of one pasted batch.
type Table struct {
	Format    model.Format
	HasHeader bool
	Headers   []string
	Rows      [][]string // every non-ghost row, header included
	DataStart int        // 1 when the first row is a header
}

// DataRows returns the rows after the header.
func (t Table) DataRows() [][]string { return t.Rows[t.DataStart:] }

// Tokenize splits raw text into rows and cells. It never fails.
func (d *Dictionary) Tokenize(text string) Table {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	kept := make([]string, 0, len(lines))
	tab := false
	for _, ln := range lines {
		ln = strings.TrimRight(ln, "\r")
		if isGhostRow(ln) {
			continue
		}
		if strings.Contains(ln, "\t") {
			tab = true
		}
		kept = append(kept, ln)
	}

	t := Table{Format: model.FormatSpace, Rows: make([][]string, 0, len(kept))}
	if tab {
		t.Format = model.FormatTab
	}
	for _, ln := range kept {
		t.Rows = append(t.Rows, splitCells(ln, t.Format))
	}

	if len(t.Rows) > 0 {
		for _, c := range t.Rows[0] {
			if d.isHeaderCell(c) {
				t.HasHeader = true
				t.Headers = t.Rows[0]
				t.DataStart = 1
				break
			}
		}
	}
	return t
}

// isGhostRow: empty, or only whitespace, commas and tabs.
func isGhostRow(ln string) bool {
	return strings.TrimFunc(ln, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}) == ""
}

func splitCells(ln string, f model.Format) []string {
	var parts []string
	if f == model.FormatTab {
		parts = strings.Split(ln, "\t")
	} else {
		parts = reMultiSpace.Split(strings.TrimSpace(ln), -1)
	}
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
