package fileio

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
)

const utf8BOM = "\ufeff"

// DecodeText converts uploaded bytes to UTF-8 and strips a BOM. Valid UTF-8
// is taken as is; otherwise the charset is sniffed, and anything that is not
// a known single-byte charset is read as EUC-KR (CP949).
func DecodeText(b []byte) string {
	if utf8.Valid(b) {
		return strings.TrimPrefix(string(b), utf8BOM)
	}
	out, err := encodingFor(detectCharset(b)).NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\ufffd")
	}
	return strings.TrimPrefix(string(out), utf8BOM)
}

func detectCharset(b []byte) string {
	peek := b
	if len(peek) > 4096 {
		peek = peek[:4096]
	}
	det, err := chardet.NewTextDetector().DetectBest(peek)
	if err != nil || det == nil {
		return ""
	}
	return strings.ToLower(det.Charset)
}

func encodingFor(charset string) encoding.Encoding {
	switch charset {
	case "windows-1251", "cp1251":
		return charmap.Windows1251
	case "koi8-r":
		return charmap.KOI8R
	case "iso-8859-1", "windows-1252":
		return charmap.Windows1252
	default:
		return korean.EUCKR
	}
}

// readDelimited reads CSV or TSV after charset conversion.
func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader([]byte(DecodeText(b))))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = normalizeCell(rec[i])
		}
		rows = append(rows, trimRow(rec))
	}
	return rows, nil
}
