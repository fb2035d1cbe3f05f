package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the column order of chart-of-accounts.csv. Only account_id,
// account_name and account_type are required when reading.
var Header = []string{"account_id", "account_name", "account_type", "parent_id", "description"}

var requiredColumns = []string{"account_id", "account_name", "account_type"}

// ReadAccounts reads chart-of-accounts.csv. Columns are found by header
// name; account ids must be unique and parents must exist.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("accounts header: missing column %q", name)
		}
	}
	get := func(rec []string, name string) string {
		if i, ok := cols[name]; ok {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var accounts []model.Account
	seen := make(map[int]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading accounts CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		acct, err := unmarshalAccount(func(name string) string { return get(rec, name) })
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if seen[acct.ID] {
			return nil, fmt.Errorf("row %d: duplicate account_id %d", line, acct.ID)
		}
		seen[acct.ID] = true
		accounts = append(accounts, acct)
	}

	for _, a := range accounts {
		if a.ParentID != 0 && !seen[a.ParentID] {
			return nil, fmt.Errorf("account %d: unknown parent_id %d", a.ID, a.ParentID)
		}
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing account %d: %w", acct.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a record in Header order.
func MarshalAccount(acct model.Account) []string {
	parent := ""
	if acct.ParentID != 0 {
		parent = strconv.Itoa(acct.ParentID)
	}
	return []string{strconv.Itoa(acct.ID), acct.Name, string(acct.Type), parent, acct.Description}
}

// UnmarshalAccount converts a record in Header order to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != len(Header) {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(record))
	}
	return unmarshalAccount(func(name string) string {
		for i, h := range Header {
			if h == name {
				return strings.TrimSpace(record[i])
			}
		}
		return ""
	})
}

func unmarshalAccount(field func(name string) string) (model.Account, error) {
	id, err := strconv.Atoi(field("account_id"))
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", field("account_id"), err)
	}
	name := field("account_name")
	if name == "" {
		return model.Account{}, fmt.Errorf("account %d: missing account_name", id)
	}
	accountType := model.AccountType(strings.ToLower(field("account_type")))
	if !accountType.Valid() {
		return model.Account{}, fmt.Errorf("unknown account_type %q", field("account_type"))
	}

	var parentID int
	if p := field("parent_id"); p != "" {
		parentID, err = strconv.Atoi(p)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing parent_id %q: %w", p, err)
		}
	}

	return model.Account{
		ID:          id,
		Name:        name,
		Type:        accountType,
		ParentID:    parentID,
		Description: field("description"),
	}, nil
}
