// Package reconlog keeps the append-only record of reconciliation runs.
package reconlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/tally/internal/model"
)

// Run is one row in the reconciliation log.
type Run struct {
	ID          uuid.UUID
	Timestamp   time.Time
	Statement   string
	AccountID   int
	Summary     model.Summary
	Fingerprint string
	CommitHash  string
}

// Header is the CSV header of reconcile-log.csv.
var Header = []string{
	"run_id", "timestamp", "statement", "account_id",
	"accepted", "review", "unmatched_transactions", "unmatched_entries",
	"fingerprint", "commit_hash",
}

const (
	numFields     = 10
	logDir        = "logs"
	logFile       = "logs/reconcile-log.csv"
	colRunID      = 0
	colTimestamp  = 1
	colStatement  = 2
	colAccountID  = 3
	colAccepted   = 4
	colReview     = 5
	colUnmatchedT = 6
	colUnmatchedE = 7
	colFinger     = 8
	colCommitHash = 9
)

// NewRun starts a log row for a finished matcher run.
func NewRun(statement string, accountID int, res *model.ReconciliationResult, now time.Time) Run {
	return Run{
		ID:          uuid.New(),
		Timestamp:   now.UTC().Truncate(time.Second),
		Statement:   statement,
		AccountID:   accountID,
		Summary:     res.Summary(),
		Fingerprint: res.Fingerprint(),
	}
}

// MarshalRun converts a Run to a CSV row.
func MarshalRun(r Run) []string {
	row := make([]string, numFields)
	row[colRunID] = r.ID.String()
	row[colTimestamp] = r.Timestamp.Format(time.RFC3339)
	row[colStatement] = r.Statement
	row[colAccountID] = strconv.Itoa(r.AccountID)
	row[colAccepted] = strconv.Itoa(r.Summary.Accepted)
	row[colReview] = strconv.Itoa(r.Summary.Review)
	row[colUnmatchedT] = strconv.Itoa(r.Summary.UnmatchedTransactions)
	row[colUnmatchedE] = strconv.Itoa(r.Summary.UnmatchedEntries)
	row[colFinger] = r.Fingerprint
	row[colCommitHash] = r.CommitHash
	return row
}

// UnmarshalRun converts a CSV row to a Run.
func UnmarshalRun(record []string) (Run, error) {
	if len(record) != numFields {
		return Run{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := uuid.Parse(record[colRunID])
	if err != nil {
		return Run{}, fmt.Errorf("parsing run id %q: %w", record[colRunID], err)
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Run{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var ints [5]int
	for i, col := range []int{colAccountID, colAccepted, colReview, colUnmatchedT, colUnmatchedE} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Run{}, fmt.Errorf("parsing %s %q: %w", Header[col], record[col], err)
		}
		ints[i] = n
	}

	return Run{
		ID:        id,
		Timestamp: ts,
		Statement: record[colStatement],
		AccountID: ints[0],
		Summary: model.Summary{
			Accepted:              ints[1],
			Review:                ints[2],
			UnmatchedTransactions: ints[3],
			UnmatchedEntries:      ints[4],
		},
		Fingerprint: record[colFinger],
		CommitHash:  record[colCommitHash],
	}, nil
}

// Append writes runs to <repoRoot>/logs/reconcile-log.csv, creating the file and header if needed.
func Append(repoRoot string, runs ...Run) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening reconcile log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range runs {
		if err := cw.Write(MarshalRun(r)); err != nil {
			return fmt.Errorf("writing run %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all runs from <repoRoot>/logs/reconcile-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Run, error) {
	path := filepath.Join(repoRoot, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening reconcile log: %w", err)
	}
	defer f.Close()

	return readRuns(f)
}

// Path returns the log file location relative to the repository root.
func Path() string {
	return logFile
}

func readRuns(r io.Reader) ([]Run, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reconcile log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var runs []Run
	for i, rec := range records[1:] {
		r, err := UnmarshalRun(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// Last returns the most recent run for statement, if any. Comparing its
// fingerprint with a fresh run shows whether the outcome changed.
func Last(runs []Run, statement string) (Run, bool) {
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Statement == statement {
			return runs[i], true
		}
	}
	return Run{}, false
}
