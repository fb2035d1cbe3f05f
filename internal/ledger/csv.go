package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the column order tally writes to journal.csv. Readers locate
// columns by name, so journals with extra columns (confidence, evidence,
// receipt_hash) or a different order still load.
var Header = []string{
	"entry_id", "date", "account_id", "description", "debit", "credit",
	"counterparty", "reference", "status", "tags", "notes",
}

// requiredColumns must appear in every journal header.
var requiredColumns = []string{"entry_id", "date", "account_id", "debit", "credit"}

const dateFormat = "2006-01-02"

// layout maps column names to positions in one file.
type layout struct {
	index map[string]int
	width int
}

func newLayout(header []string) (layout, error) {
	l := layout{index: make(map[string]int, len(header)), width: len(header)}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := l.index[name]; dup {
			return layout{}, fmt.Errorf("duplicate column %q", name)
		}
		l.index[name] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := l.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return layout{}, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return l, nil
}

// canonical is the layout of Header.
var canonical, _ = newLayout(Header)

func (l layout) field(record []string, name string) string {
	i, ok := l.index[name]
	if !ok {
		return ""
	}
	return record[i]
}

// ReadLegs reads all legs from a journal.csv reader.
func ReadLegs(r io.Reader) ([]model.Leg, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal header: %w", err)
	}
	l, err := newLayout(header)
	if err != nil {
		return nil, fmt.Errorf("journal header: %w", err)
	}

	var legs []model.Leg
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return legs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading journal CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		leg, err := l.unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		legs = append(legs, leg)
	}
}

// WriteLegs writes legs to a journal.csv writer (including header).
func WriteLegs(w io.Writer, legs []model.Leg) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, leg := range legs {
		if err := cw.Write(MarshalLeg(leg)); err != nil {
			return fmt.Errorf("writing leg %s: %w", leg.EntryID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLeg converts a Leg to a record in Header order.
func MarshalLeg(leg model.Leg) []string {
	money := func(d decimal.Decimal) string {
		if d.IsZero() {
			return ""
		}
		return d.StringFixed(2)
	}
	return []string{
		leg.EntryID,
		leg.Date.Format(dateFormat),
		strconv.Itoa(leg.AccountID),
		leg.Description,
		money(leg.Debit),
		money(leg.Credit),
		leg.Counterparty,
		leg.Reference,
		string(leg.Status),
		leg.Tags,
		leg.Notes,
	}
}

// UnmarshalLeg converts a record in Header order to a Leg.
func UnmarshalLeg(record []string) (model.Leg, error) {
	return canonical.unmarshal(record)
}

func (l layout) unmarshal(record []string) (model.Leg, error) {
	if len(record) != l.width {
		return model.Leg{}, fmt.Errorf("expected %d fields, got %d", l.width, len(record))
	}
	f := func(name string) string { return l.field(record, name) }

	entryID := strings.TrimSpace(f("entry_id"))
	if entryID == "" {
		return model.Leg{}, fmt.Errorf("missing entry_id")
	}
	date, err := time.Parse(dateFormat, strings.TrimSpace(f("date")))
	if err != nil {
		return model.Leg{}, fmt.Errorf("parsing date %q: %w", f("date"), err)
	}
	accountID, err := strconv.Atoi(strings.TrimSpace(f("account_id")))
	if err != nil {
		return model.Leg{}, fmt.Errorf("parsing account_id %q: %w", f("account_id"), err)
	}
	debit, err := parseMoney("debit", f("debit"))
	if err != nil {
		return model.Leg{}, err
	}
	credit, err := parseMoney("credit", f("credit"))
	if err != nil {
		return model.Leg{}, err
	}

	return model.Leg{
		EntryID:      entryID,
		Date:         date,
		AccountID:    accountID,
		Description:  f("description"),
		Debit:        debit,
		Credit:       credit,
		Counterparty: f("counterparty"),
		Reference:    f("reference"),
		Status:       model.EntryStatus(f("status")),
		Tags:         f("tags"),
		Notes:        f("notes"),
	}, nil
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
