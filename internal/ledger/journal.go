package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Journal reads and writes the month journals of a project.
type Journal struct {
	repoRoot string
	accounts AccountChecker
}

// NewJournal creates a Journal rooted at repoRoot.
func NewJournal(repoRoot string, accounts AccountChecker) *Journal {
	return &Journal{repoRoot: repoRoot, accounts: accounts}
}

// Posting is one side of a new entry.
type Posting struct {
	AccountID int
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// AddParams holds parameters for a new journal entry.
type AddParams struct {
	Date         time.Time
	Description  string
	Postings     []Posting
	Counterparty string
	Reference    string
	Status       model.EntryStatus
	Tags         string
	Notes        string
}

// Add validates a new entry together with the rest of its month and
// rewrites the month journal. Returns the entry ID.
func (j *Journal) Add(params AddParams) (string, error) {
	year, month := params.Date.Year(), int(params.Date.Month())
	if len(params.Postings) < 2 {
		return "", fmt.Errorf("entry needs at least two postings")
	}

	existing, err := j.ReadMonth(year, month)
	if err != nil {
		return "", err
	}
	seq, err := nextSeq(existing)
	if err != nil {
		return "", err
	}

	status := params.Status
	if status == "" {
		status = model.StatusPendingReview
	}
	entryID := FormatEntryID(year, month, seq)
	legs := make([]model.Leg, len(params.Postings))
	for i, p := range params.Postings {
		legs[i] = model.Leg{
			EntryID:      FormatLegID(entryID, i),
			Date:         params.Date,
			AccountID:    p.AccountID,
			Description:  params.Description,
			Debit:        p.Debit,
			Credit:       p.Credit,
			Counterparty: params.Counterparty,
			Reference:    params.Reference,
			Status:       status,
			Tags:         params.Tags,
			Notes:        params.Notes,
		}
	}

	if err := j.WriteMonth(year, month, append(existing, legs...)); err != nil {
		return "", err
	}
	return entryID, nil
}

// AddTransfer records a two-leg entry moving amount from one account to another.
func (j *Journal) AddTransfer(date time.Time, description string, debitAccount, creditAccount int, amount decimal.Decimal) (string, error) {
	return j.Add(AddParams{
		Date:        date,
		Description: description,
		Postings: []Posting{
			{AccountID: debitAccount, Debit: amount},
			{AccountID: creditAccount, Credit: amount},
		},
	})
}

// ReadMonth reads all legs for a given year/month. A missing journal is empty.
func (j *Journal) ReadMonth(year, month int) ([]model.Leg, error) {
	path := j.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

// WriteMonth validates legs and replaces the month's journal.csv.
func (j *Journal) WriteMonth(year, month int, legs []model.Leg) error {
	if verrs := ValidateLegs(legs, j.accounts, year, month); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	var buf bytes.Buffer
	if err := WriteLegs(&buf, legs); err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}

	path := j.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing journal: %w", err)
	}
	return nil
}

func nextSeq(legs []model.Leg) (int, error) {
	maxSeq := 0
	for _, leg := range legs {
		_, _, seq, err := ParseEntryID(leg.EntryID)
		if err != nil {
			return 0, err
		}
		maxSeq = max(maxSeq, seq)
	}
	return maxSeq + 1, nil
}

// MonthFile is the journal path of a month relative to the project root.
func MonthFile(year, month int) string {
	return filepath.Join(fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}

func (j *Journal) monthPath(year, month int) string {
	return filepath.Join(j.repoRoot, MonthFile(year, month))
}
