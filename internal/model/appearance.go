package model

import "time"

// RecordStatus is the lifecycle state of an appearance record. The only
// legal transition is active → removed; a re-appearance after removal is a
// new record, never a resurrection.
type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusRemoved RecordStatus = "removed"
)

// AppearanceRecord is one row of the persistent ledger: a distinct
// (company, location, bureau) tuple observed in at least one publication,
// with its listing lifecycle.
type AppearanceRecord struct {
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	LaborBureau string `json:"labor_bureau"`

	FirstAppeared time.Time  `json:"first_appeared"`           // immutable once set
	LastAppeared  *time.Time `json:"last_appeared,omitempty"`  // nil while active
	DurationDays  *int       `json:"duration_days,omitempty"`  // set exactly once, at removal

	ViolationLaw     string `json:"violation_law"`
	ViolationSummary string `json:"violation_summary"`
	ProsecutionDate  string `json:"prosecution_date"`

	Status RecordStatus `json:"status"`

	// CrossedDataGap is true when the active interval overlaps the known
	// publication void; such records are excluded from duration statistics.
	CrossedDataGap bool `json:"crossed_data_gap,omitempty"`
}

// Key returns the natural key identifying this record.
func (r AppearanceRecord) Key() string {
	return NaturalKey(r.CompanyName, r.Location, r.LaborBureau)
}

// NaturalKey builds the natural key from its normalized components.
func NaturalKey(companyName, location, laborBureau string) string {
	return companyName + "|" + location + "|" + laborBureau
}

// Active reports whether the record is currently listed.
func (r AppearanceRecord) Active() bool {
	return r.Status == StatusActive
}
