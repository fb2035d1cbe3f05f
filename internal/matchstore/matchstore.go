// Package matchstore persists the candidates of a reconciliation run as
// reconciliations/<run id>.csv, one row per matched item.
package matchstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Dir holds the saved runs, relative to the repository root.
const Dir = "reconciliations"

// Status tells whether a candidate was accepted or left for review.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusReview   Status = "review"
)

// Side tells which input a row's item came from.
type Side string

const (
	SideBank   Side = "bank"
	SideLedger Side = "ledger"
)

// Row is one item of one candidate.
type Row struct {
	Candidate   int // 1-based within the run
	Status      Status
	Reason      model.MatchReason
	Confidence  float64
	Side        Side
	Ref         string // bank reference or ledger entry id
	Date        string // YYYY-MM-DD
	Amount      decimal.Decimal
	Description string
}

// Header is the CSV header of a saved run.
var Header = []string{"candidate", "status", "reason", "confidence", "side", "ref", "date", "amount", "description"}

const (
	numFields      = 9
	colCandidate   = 0
	colStatus      = 1
	colReason      = 2
	colConfidence  = 3
	colSide        = 4
	colRef         = 5
	colDate        = 6
	colAmount      = 7
	colDescription = 8
)

// Rows flattens the accepted and review candidates of res.
func Rows(res *model.ReconciliationResult) []Row {
	var rows []Row
	n := 0
	for _, set := range []struct {
		status     Status
		candidates []model.MatchCandidate
	}{
		{StatusAccepted, res.Accepted},
		{StatusReview, res.Review},
	} {
		for _, c := range set.candidates {
			n++
			base := Row{Candidate: n, Status: set.status, Reason: c.Reason, Confidence: c.Confidence}
			for _, t := range c.Transactions {
				r := base
				r.Side = SideBank
				r.Ref = t.Reference
				if r.Ref == "" {
					r.Ref = t.SourceRef
				}
				r.Date = t.Date.Format("2006-01-02")
				r.Amount = t.Amount
				r.Description = t.Description
				rows = append(rows, r)
			}
			for _, e := range c.Entries {
				r := base
				r.Side = SideLedger
				r.Ref = e.ID
				r.Date = e.Date.Format("2006-01-02")
				r.Amount = e.Amount
				r.Description = e.Description
				rows = append(rows, r)
			}
		}
	}
	return rows
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(r Row) []string {
	rec := make([]string, numFields)
	rec[colCandidate] = strconv.Itoa(r.Candidate)
	rec[colStatus] = string(r.Status)
	rec[colReason] = string(r.Reason)
	rec[colConfidence] = strconv.FormatFloat(r.Confidence, 'f', 4, 64)
	rec[colSide] = string(r.Side)
	rec[colRef] = r.Ref
	rec[colDate] = r.Date
	rec[colAmount] = r.Amount.StringFixed(2)
	rec[colDescription] = r.Description
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(rec []string) (Row, error) {
	if len(rec) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}
	n, err := strconv.Atoi(rec[colCandidate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing candidate %q: %w", rec[colCandidate], err)
	}
	conf, err := strconv.ParseFloat(rec[colConfidence], 64)
	if err != nil {
		return Row{}, fmt.Errorf("parsing confidence %q: %w", rec[colConfidence], err)
	}
	amount, err := decimal.NewFromString(rec[colAmount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}
	return Row{
		Candidate:   n,
		Status:      Status(rec[colStatus]),
		Reason:      model.MatchReason(rec[colReason]),
		Confidence:  conf,
		Side:        Side(rec[colSide]),
		Ref:         rec[colRef],
		Date:        rec[colDate],
		Amount:      amount,
		Description: rec[colDescription],
	}, nil
}

// Path returns the file of a run, relative to the repository root.
func Path(runID uuid.UUID) string {
	return filepath.Join(Dir, runID.String()+".csv")
}

// Save writes the candidates of res to <repoRoot>/reconciliations/<run id>.csv
// and returns the path relative to repoRoot.
func Save(repoRoot string, runID uuid.UUID, res *model.ReconciliationResult) (string, error) {
	if err := os.MkdirAll(filepath.Join(repoRoot, Dir), 0o755); err != nil {
		return "", fmt.Errorf("creating %s dir: %w", Dir, err)
	}
	rel := Path(runID)
	path := filepath.Join(repoRoot, rel)

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", rel, err)
	}
	if err := writeRows(f, Rows(res)); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing %s: %w", rel, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("renaming %s: %w", rel, err)
	}
	return rel, nil
}

// Load reads the rows of a saved run.
func Load(repoRoot string, runID uuid.UUID) ([]Row, error) {
	f, err := os.Open(filepath.Join(repoRoot, Path(runID)))
	if err != nil {
		return nil, fmt.Errorf("opening run %s: %w", runID, err)
	}
	defer f.Close()
	return readRows(f)
}

func writeRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(MarshalRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
