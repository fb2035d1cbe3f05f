package importer

import (
	"bytes"
	"path/filepath"

	"github.com/cleared-dev/tally/internal/model"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// Detect infers a statement's format from its content, then its file
// extension. Anything unrecognised is treated as delimited text.
func Detect(name string, data []byte) model.Format {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	switch {
	case bytes.Contains(head, pdfMagic):
		return model.FormatDocument
	case bytes.HasPrefix(data, zipMagic):
		return model.FormatSpreadsheet
	}
	if f := model.ParseFormat(filepath.Ext(name)); f != model.FormatUnknown {
		return f
	}
	return model.FormatDelimited
}
