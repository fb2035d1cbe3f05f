package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cleared-dev/tally/internal/model"
)

// Field is a canonical statement column.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldBalance     Field = "balance"
	FieldDirection   Field = "direction"
)

// fieldOrder is the order header cells are offered to fields.
var fieldOrder = []Field{
	FieldDate, FieldDirection, FieldDebit, FieldCredit, FieldAmount, FieldBalance, FieldDescription,
}

// Columns lists header aliases per canonical field. An empty list falls
// back to the generic aliases; the single alias "-" disables the field.
type Columns struct {
	Date        []string `yaml:"date,omitempty"`
	Description []string `yaml:"description,omitempty"`
	Amount      []string `yaml:"amount,omitempty"`
	Debit       []string `yaml:"debit,omitempty"`
	Credit      []string `yaml:"credit,omitempty"`
	Balance     []string `yaml:"balance,omitempty"`
	Direction   []string `yaml:"direction,omitempty"`
}

func (c Columns) aliases(f Field) []string {
	switch f {
	case FieldDate:
		return c.Date
	case FieldDescription:
		return c.Description
	case FieldAmount:
		return c.Amount
	case FieldDebit:
		return c.Debit
	case FieldCredit:
		return c.Credit
	case FieldBalance:
		return c.Balance
	case FieldDirection:
		return c.Direction
	}
	return nil
}

// Template describes how one institution lays out its statements.
type Template struct {
	Name             string        `yaml:"name"`
	Format           model.Format  `yaml:"format,omitempty"` // empty = any
	Delimiter        string        `yaml:"delimiter,omitempty"`
	Encoding         string        `yaml:"encoding,omitempty"`
	Sheet            string        `yaml:"sheet,omitempty"`
	Columns          Columns       `yaml:"columns,omitempty"`
	Positions        map[Field]int `yaml:"positions,omitempty"` // headerless files
	DebitMarkers     []string      `yaml:"debit_markers,omitempty"`
	CreditMarkers    []string      `yaml:"credit_markers,omitempty"`
	DateLayouts      []string      `yaml:"date_layouts,omitempty"` // Go layouts, in preference order
	DecimalSeparator string        `yaml:"decimal_separator,omitempty"`
	InvertSign       bool          `yaml:"invert_sign,omitempty"`
	AccountPattern   string        `yaml:"account_pattern,omitempty"`
	HeaderScanRows   int           `yaml:"header_scan_rows,omitempty"`
	ReferencePrefix  string        `yaml:"reference_prefix,omitempty"`

	accountRE *regexp.Regexp
}

const defaultHeaderScanRows = 15

var genericColumns = Columns{
	Date: []string{
		"date", "posting date", "post date", "posted date", "transaction date", "trans date",
		"booking date", "value date", "entry date", "datum", "buchungstag", "fecha", "date operation",
	},
	Description: []string{
		"description", "details", "transaction details", "transaction description", "memo",
		"narrative", "particulars", "payee", "name", "reference", "transaction", "text",
		"verwendungszweck", "concepto", "libelle",
	},
	Amount: []string{"amount", "transaction amount", "value", "betrag", "importe", "montant"},
	Debit: []string{
		"debit", "debits", "debit amount", "withdrawal", "withdrawals", "paid out", "money out", "out", "soll",
	},
	Credit: []string{
		"credit", "credits", "credit amount", "deposit", "deposits", "paid in", "money in", "in", "haben",
	},
	Balance:   []string{"balance", "running balance", "balance after", "saldo", "kontostand", "solde"},
	Direction: []string{"direction", "dr cr", "cr dr", "debit credit", "credit debit", "d c"},
}

// DefaultDateLayouts is the layout list used when a template names none.
// ISO comes first, then day-first ahead of month-first: a file whose dates
// are all ambiguous (day <= 12) is read day-first.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"20060102",
	"2/1/2006",
	"1/2/2006",
	"2/1/2006 15:04",
	"1/2/2006 15:04",
	"2/1/06",
	"1/2/06",
	"2.1.2006",
	"2.1.06",
	"2-1-2006",
	"1-2-2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 06",
	"Jan 2, 2006",
	"January 2, 2006",
}

var (
	defaultDebitMarkers  = []string{"debit", "dr", "d", "out", "withdrawal"}
	defaultCreditMarkers = []string{"credit", "cr", "c", "in", "deposit"}
)

// Validate checks the template for settings the parser cannot honour.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	if t.Format != model.FormatUnknown && model.ParseFormat(string(t.Format)) != t.Format {
		return fmt.Errorf("template %s: unknown format %q", t.Name, t.Format)
	}
	if t.Delimiter != "" && utf8.RuneCountInString(t.Delimiter) != 1 && t.Delimiter != `\t` {
		return fmt.Errorf("template %s: delimiter must be a single character", t.Name)
	}
	switch t.DecimalSeparator {
	case "", ".", ",":
	default:
		return fmt.Errorf("template %s: decimal separator must be \".\" or \",\"", t.Name)
	}
	if _, err := lookupEncoding(t.Encoding); err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}
	for f, pos := range t.Positions {
		if pos < 0 {
			return fmt.Errorf("template %s: negative position for %s", t.Name, f)
		}
		if len(genericColumns.aliases(f)) == 0 {
			return fmt.Errorf("template %s: unknown field %q in positions", t.Name, f)
		}
	}
	if len(t.Positions) > 0 {
		if _, ok := t.Positions[FieldDate]; !ok {
			return fmt.Errorf("template %s: positions must include date", t.Name)
		}
	}
	if t.AccountPattern != "" {
		re, err := regexp.Compile(t.AccountPattern)
		if err != nil {
			return fmt.Errorf("template %s: account pattern: %w", t.Name, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("template %s: account pattern needs a capture group", t.Name)
		}
	}
	return nil
}

// resolved returns a copy with every unset option filled from the defaults.
func (t Template) resolved() Template {
	for _, f := range fieldOrder {
		if len(t.Columns.aliases(f)) == 0 {
			t.Columns = t.Columns.with(f, genericColumns.aliases(f))
		}
	}
	if len(t.DateLayouts) == 0 {
		t.DateLayouts = DefaultDateLayouts
	}
	if len(t.DebitMarkers) == 0 {
		t.DebitMarkers = defaultDebitMarkers
	}
	if len(t.CreditMarkers) == 0 {
		t.CreditMarkers = defaultCreditMarkers
	}
	if t.HeaderScanRows <= 0 {
		t.HeaderScanRows = defaultHeaderScanRows
	}
	if t.Delimiter == `\t` {
		t.Delimiter = "\t"
	}
	if t.ReferencePrefix == "" {
		t.ReferencePrefix = strings.ToLower(t.Name)
	}
	if t.AccountPattern != "" {
		t.accountRE = regexp.MustCompile(t.AccountPattern)
	}
	return t
}

func (c Columns) with(f Field, aliases []string) Columns {
	switch f {
	case FieldDate:
		c.Date = aliases
	case FieldDescription:
		c.Description = aliases
	case FieldAmount:
		c.Amount = aliases
	case FieldDebit:
		c.Debit = aliases
	case FieldCredit:
		c.Credit = aliases
	case FieldBalance:
		c.Balance = aliases
	case FieldDirection:
		c.Direction = aliases
	}
	return c
}

// Registry holds named templates.
type Registry struct {
	templates map[string]Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Register adds a built-in template. Panics on an invalid or duplicate template.
func (r *Registry) Register(t Template) {
	if err := r.Add(t); err != nil {
		panic(err.Error())
	}
}

// Add validates and adds a template.
func (r *Registry) Add(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(t.Name)
	if _, ok := r.templates[key]; ok {
		return fmt.Errorf("duplicate template: %s", key)
	}
	r.templates[key] = t
	return nil
}

// Get returns the template registered under name.
func (r *Registry) Get(name string) (Template, bool) {
	t, ok := r.templates[strings.ToLower(name)]
	return t, ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for k := range r.templates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GenericTemplate is the name of the catch-all template.
const GenericTemplate = "generic"

// DefaultRegistry returns a registry with all built-in templates.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Template{Name: GenericTemplate, ReferencePrefix: "txn"})
	r.Register(chaseTemplate())
	return r
}
