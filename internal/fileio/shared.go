package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ReadAnyRows picks a reader by extension and returns the first sheet (or
// the whole delimited file) as rows of trimmed cells. Empty rows are kept;
// the row tokenizer drops them.
func ReadAnyRows(r io.Reader, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r)
	case ".xls":
		return readXLS(r)
	case ".csv":
		return readDelimited(r, ',')
	case ".tsv":
		return readDelimited(r, '\t')
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// ReadText returns upload content in the pasted-text shape. Plain text files
// are only decoded so that multi-space layouts survive.
func ReadText(r io.Reader, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", "":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return DecodeText(b), nil
	}
	rows, err := ReadAnyRows(r, filename)
	if err != nil {
		return "", err
	}
	return RowsToText(rows), nil
}

// RowsToText joins cells with tabs and rows with newlines.
func RowsToText(rows [][]string) string {
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, c := range row {
			if j > 0 {
				sb.WriteByte('\t')
			}
			// a tab or newline inside a cell would split it
			sb.WriteString(normalizeCell(c))
		}
	}
	return sb.String()
}

// normalizeCell trims and collapses inner whitespace, NBSP included.
func normalizeCell(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// trimRow drops trailing empty cells.
func trimRow(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}
