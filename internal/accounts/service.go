package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// chartPath is the chart of accounts location relative to the project root.
const chartPath = "accounts/chart-of-accounts.csv"

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[int]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// Load reads chart-of-accounts.csv from a project root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(filepath.Join(repoRoot, chartPath))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// Name returns the account name, or the bare ID for unknown accounts.
func (s *Service) Name(id int) string {
	if a, ok := s.byID[id]; ok {
		return a.Name
	}
	return strconv.Itoa(id)
}

// Cash returns the accounts statements can be reconciled against, in
// chart order.
func (s *Service) Cash() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.HoldsCash() {
			result = append(result, a)
		}
	}
	return result
}

// Find resolves an account by numeric ID or case-insensitive name.
func (s *Service) Find(ref string) (model.Account, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		if a, ok := s.byID[id]; ok {
			return a, nil
		}
		return model.Account{}, fmt.Errorf("unknown account %d", id)
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.Name, ref) {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("unknown account %q", ref)
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	path := filepath.Join(repoRoot, chartPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
