package importer

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// extractDocument reads the text layer of a PDF statement and rebuilds its
// table from glyph positions.
func extractDocument(data []byte, tmpl *Template) (ext *extraction, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			ext, err = nil, fmt.Errorf("malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}

	var lines []textLine
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		var frags []fragment
		for _, t := range page.Content().Text {
			frags = append(frags, fragment{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
		}
		lines = append(lines, buildLines(i, frags)...)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("document has no text layer")
	}
	return extractLayout(lines, tmpl), nil
}
