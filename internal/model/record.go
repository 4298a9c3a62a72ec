// Package model defines the record types flowing through the archive
// pipeline: raw extracted rows, normalized snapshot records, and the
// persistent appearance ledger entries.
package model

// RawRecord is one row as extracted from a source PDF or snapshot file,
// all fields free text exactly as they appeared.
type RawRecord struct {
	CompanyName             string `json:"company_name"`
	Location                string `json:"location"`
	LaborBureau             string `json:"labor_bureau"`
	ViolationLaw            string `json:"violation_law"`
	ViolationSummary        string `json:"violation_summary"`
	Reference               string `json:"reference,omitempty"`
	ProsecutionDate         string `json:"prosecution_date"`
	PublicationDate         string `json:"publication_date"`
	PublicationDateOriginal string `json:"publication_date_original,omitempty"`
}

// NormalizedRecord is a RawRecord after canonicalization: whitespace
// collapsed, known corruption repaired, dates in ISO form. Key is the
// natural key identifying the entity-violation record.
type NormalizedRecord struct {
	Key              string `json:"key"`
	CompanyName      string `json:"company_name"`
	Location         string `json:"location"`
	LaborBureau      string `json:"labor_bureau"`
	ViolationLaw     string `json:"violation_law"`
	ViolationSummary string `json:"violation_summary"`
	ProsecutionDate  string `json:"prosecution_date"` // ISO or empty
	PublicationDate  string `json:"publication_date"` // ISO or empty

	// GarbledLocation marks a location that matched the interleaving
	// corruption heuristic but had no entry in the correction table.
	// The value is preserved as-is for manual curation.
	GarbledLocation bool `json:"garbled_location,omitempty"`
}

// Snapshot is the set of entities listed in one source publication as of
// one date. It is ephemeral: built per run, never persisted.
type Snapshot struct {
	Records []NormalizedRecord
}

// Keys returns the set of natural keys present in the snapshot.
func (s Snapshot) Keys() map[string]bool {
	keys := make(map[string]bool, len(s.Records))
	for _, r := range s.Records {
		keys[r.Key] = true
	}
	return keys
}
