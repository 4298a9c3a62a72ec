package model

// IssueSeverity classifies how a lint finding must be handled.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue categories emitted by the lint pass.
const (
	CategoryInvalidDate        = "invalid_date"
	CategoryDateOutOfRange     = "date_out_of_range"
	CategoryEmptyCompanyName   = "empty_company_name"
	CategoryBoilerplateRow     = "boilerplate_row"
	CategoryLocationWhitespace = "location_whitespace"
	CategoryGarbledLocation    = "garbled_location"
	CategoryLongCompanyName    = "long_company_name"
	CategoryOrderViolation     = "date_order_violation"
	CategoryDuplicateActive    = "duplicate_active_key"
	CategoryInvalidStatus      = "invalid_status"
)

// Issue is one lint finding against a ledger record.
type Issue struct {
	Severity    IssueSeverity `json:"severity"`
	Category    string        `json:"category"`
	RecordKey   string        `json:"record_key"`
	Field       string        `json:"field,omitempty"`
	Value       string        `json:"value,omitempty"`
	Description string        `json:"description"`

	// Fixed and Dropped report what Repair did about the finding.
	Fixed   bool `json:"fixed,omitempty"`
	Dropped bool `json:"dropped,omitempty"`
}
