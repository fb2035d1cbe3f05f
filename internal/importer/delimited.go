package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/cleared-dev/tally/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractDelimited reads delimiter-separated text with a header-driven
// column mapping.
func extractDelimited(data []byte, tmpl *Template) (*extraction, error) {
	text, err := decodeText(data, tmpl.Encoding)
	if err != nil {
		return nil, err
	}

	delim := detectDelimiter(text)
	if tmpl.Delimiter != "" {
		delim, _ = utf8.DecodeRuneInString(tmpl.Delimiter)
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows []gridRow
	var warnings []model.ParseWarning
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				warnings = append(warnings, model.ParseWarning{
					SourceRef: fmt.Sprintf("row %d", pe.StartLine),
					Message:   pe.Err.Error(),
				})
				continue
			}
			return nil, fmt.Errorf("reading delimited text: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, gridRow{Ref: fmt.Sprintf("row %d", line), Cells: rec})
	}

	ext, err := extractGrid(rows, tmpl, nil)
	if err != nil {
		return nil, err
	}
	ext.warnings = append(warnings, ext.warnings...)
	return ext, nil
}

// decodeText returns the file as UTF-8. UTF-16 files are recognised by their
// byte order mark; single-byte encodings must be named by the template.
func decodeText(data []byte, name string) (string, error) {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		out, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding UTF-16: %w", err)
		}
		return string(out), nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	if enc != nil {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding %s: %w", name, err)
		}
		return string(out), nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("unsupported encoding: binary content")
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("unsupported encoding: not valid UTF-8 (set the template encoding)")
	}
	return string(data), nil
}

// lookupEncoding maps a template encoding name. nil means UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9", "latin-9":
		return charmap.ISO8859_15, nil
	case "utf-16", "utf16":
		return xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// detectDelimiter picks the candidate that splits the most leading lines
// into the same number of fields.
func detectDelimiter(text string) rune {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
		if len(lines) == 10 {
			break
		}
	}

	best, bestLines, bestCount := ',', 0, 0
	for _, d := range delimiterCandidates {
		freq := make(map[int]int)
		for _, l := range lines {
			if n := countOutsideQuotes(l, d); n > 0 {
				freq[n]++
			}
		}
		for count, nlines := range freq {
			if nlines > bestLines || nlines == bestLines && count > bestCount {
				best, bestLines, bestCount = d, nlines, count
			}
		}
	}
	return best
}

func countOutsideQuotes(line string, d rune) int {
	n := 0
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}
