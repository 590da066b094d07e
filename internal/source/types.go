package source

import "github.com/shopspring/decimal"

// RawExpense is a single line in an expenses JSONL file.
// SpentAt accepts RFC3339 or a plain 2006-01-02 date; Date is an alias for it.
type RawExpense struct {
	ID       string          `json:"id,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category,omitempty"`
	Note     string          `json:"note,omitempty"`
	SpentAt  string          `json:"spent_at,omitempty"`
	Date     string          `json:"date,omitempty"`
}

// RawObligation is one entry of an obligations YAML file.
type RawObligation struct {
	ID         string `yaml:"id,omitempty"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"`
	Amount     string `yaml:"amount"`
	Due        string `yaml:"due"`
	Recurrence string `yaml:"recurrence"`
	AnchorDay  int    `yaml:"anchor_day,omitempty"`
	Paused     bool   `yaml:"paused,omitempty"`
	Settled    bool   `yaml:"settled,omitempty"`
}

// ObligationsFile is the top-level layout of an obligations YAML file.
type ObligationsFile struct {
	Obligations []RawObligation `yaml:"obligations"`
}

// Format identifies an import file layout.
type Format string

const (
	FormatJSONL Format = "jsonl"
	FormatXLSX  Format = "xlsx"
	FormatYAML  Format = "yaml"
)

// DiscoveredFile is an import file found during directory scanning.
type DiscoveredFile struct {
	Path   string
	Format Format
}
