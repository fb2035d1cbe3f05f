package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Format is the declared or detected layout of a raw statement file.
type Format string

const (
	FormatUnknown     Format = ""
	FormatDelimited   Format = "csv"
	FormatSpreadsheet Format = "xlsx"
	FormatDocument    Format = "pdf"
)

// ParseFormat maps a user-supplied format name or file extension to a Format.
func ParseFormat(s string) Format {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv", "tsv", "txt", "delimited", "text":
		return FormatDelimited
	case "xlsx", "xlsm", "spreadsheet", "excel":
		return FormatSpreadsheet
	case "pdf", "document":
		return FormatDocument
	default:
		return FormatUnknown
	}
}

// RawStatement is an unparsed statement file. It is consumed once by the parser.
type RawStatement struct {
	Name   string // file name, used for detection and error messages
	Data   []byte
	Format Format // FormatUnknown = detect
}

// ParsedTransaction is one normalized bank statement row.
type ParsedTransaction struct {
	Date           time.Time
	Amount         decimal.Decimal  // negative = money out, positive = money in
	Description    string
	RunningBalance *decimal.Decimal // nil unless the source carries a balance
	SourceRef      string           // "row 7", "page 2 line 14"
	Reference      string           // stable id, e.g. chase_20250103_GITHUBPROS
}

// ParseWarning records a row that was skipped or looked suspicious.
type ParseWarning struct {
	SourceRef string
	Message   string
}

// ParsedStatement is the ordered output of parsing one statement file.
type ParsedStatement struct {
	File         string
	Format       Format
	Template     string
	AccountID    string // empty when the source does not expose one
	Transactions []ParsedTransaction
	Warnings     []ParseWarning
	Skipped      int // rows reported in Warnings and left out of Transactions
}

// DateRange returns the earliest and latest transaction dates.
// ok is false for an empty statement.
func (s *ParsedStatement) DateRange() (from, to time.Time, ok bool) {
	for i, t := range s.Transactions {
		if i == 0 || t.Date.Before(from) {
			from = t.Date
		}
		if i == 0 || t.Date.After(to) {
			to = t.Date
		}
	}
	return from, to, len(s.Transactions) > 0
}
