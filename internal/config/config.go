package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/reconcile"
)

// FileName is the project configuration file at the repository root.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Business     BusinessConfig      `yaml:"business"`
	BankAccounts []BankAccount       `yaml:"bank_accounts,omitempty"`
	Matching     MatchingConfig      `yaml:"matching"`
	Templates    []importer.Template `yaml:"templates,omitempty"`
	Log          LogConfig           `yaml:"log"`
	Git          GitConfig           `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// BankAccount maps a bank statement source to a chart-of-accounts entry.
type BankAccount struct {
	Name      string `yaml:"name"`
	AccountID int    `yaml:"account_id"`
	Template  string `yaml:"template,omitempty"`
	LastFour  string `yaml:"last_four,omitempty"`
}

// MatchingConfig holds the reconciliation tuning knobs.
type MatchingConfig struct {
	AmountTolerance             decimal.Decimal `yaml:"amount_tolerance"`
	DateWindowDays              int             `yaml:"date_window_days"`
	MaxAggregateSize            int             `yaml:"max_aggregate_size"`
	MaxAggregateCandidates      int             `yaml:"max_aggregate_candidates"`
	ConfidenceThreshold         float64         `yaml:"confidence_threshold"`
	DescriptionSimilarityWeight float64         `yaml:"description_similarity_weight"`
	FuzzyDateWindowDays         int             `yaml:"fuzzy_date_window_days"`
	FuzzyAmountTolerance        float64         `yaml:"fuzzy_amount_tolerance"`
	FuzzyMinScore               float64         `yaml:"fuzzy_min_score"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a tally.yaml file from disk. Sections missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("", "")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Matching: MatchingFrom(reconcile.DefaultConfig()),
		Log: LogConfig{
			Level: "info",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
	}
}

// Validate checks the matching settings and the project templates.
func (c *Config) Validate() error {
	if err := c.Matching.Reconcile().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	for _, b := range c.BankAccounts {
		if b.AccountID == 0 {
			return fmt.Errorf("bank account %q: missing account_id", b.Name)
		}
	}
	return nil
}

// Registry returns the built-in templates plus the project's own.
func (c *Config) Registry() (*importer.Registry, error) {
	reg := importer.DefaultRegistry()
	for _, t := range c.Templates {
		if err := reg.Add(t); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
	}
	return reg, nil
}

// FindBankAccount looks a bank account up by account id, name
// (case-insensitive) or last four digits.
func (c *Config) FindBankAccount(ref string) (BankAccount, bool) {
	ref = strings.TrimSpace(ref)
	id, idErr := strconv.Atoi(ref)
	for _, b := range c.BankAccounts {
		switch {
		case idErr == nil && b.AccountID == id:
			return b, true
		case strings.EqualFold(b.Name, ref):
			return b, true
		case b.LastFour != "" && b.LastFour == ref:
			return b, true
		}
	}
	return BankAccount{}, false
}

// Reconcile converts the matching section to a matcher configuration.
func (m MatchingConfig) Reconcile() reconcile.Config {
	return reconcile.Config{
		AmountTolerance:             m.AmountTolerance,
		DateWindowDays:              m.DateWindowDays,
		MaxAggregateSize:            m.MaxAggregateSize,
		MaxAggregateCandidates:      m.MaxAggregateCandidates,
		ConfidenceThreshold:         m.ConfidenceThreshold,
		DescriptionSimilarityWeight: m.DescriptionSimilarityWeight,
		FuzzyDateWindowDays:         m.FuzzyDateWindowDays,
		FuzzyAmountTolerance:        m.FuzzyAmountTolerance,
		FuzzyMinScore:               m.FuzzyMinScore,
	}
}

// MatchingFrom is the inverse of MatchingConfig.Reconcile.
func MatchingFrom(c reconcile.Config) MatchingConfig {
	return MatchingConfig{
		AmountTolerance:             c.AmountTolerance,
		DateWindowDays:              c.DateWindowDays,
		MaxAggregateSize:            c.MaxAggregateSize,
		MaxAggregateCandidates:      c.MaxAggregateCandidates,
		ConfidenceThreshold:         c.ConfidenceThreshold,
		DescriptionSimilarityWeight: c.DescriptionSimilarityWeight,
		FuzzyDateWindowDays:         c.FuzzyDateWindowDays,
		FuzzyAmountTolerance:        c.FuzzyAmountTolerance,
		FuzzyMinScore:               c.FuzzyMinScore,
	}
}
