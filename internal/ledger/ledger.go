// Package ledger holds the persistent appearance table: every entity ever
// observed in a publication, keyed by natural key, with lifecycle fields.
// Records are never deleted; the archive's value is permanence.
package ledger

import (
	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/model"
)

// ErrDuplicateActive is returned when a mutation would leave two active
// records sharing one natural key.
var ErrDuplicateActive = eris.New("ledger: duplicate active record for key")

// ErrNotFound is returned by Update when no active record has the key.
var ErrNotFound = eris.New("ledger: no active record for key")

// Ledger is the in-memory appearance table. All mutation goes through
// Insert and Update so the single-active-per-key invariant holds at every
// step; callers never reach into records directly.
type Ledger struct {
	records []model.AppearanceRecord
	active  map[string]int // natural key -> index of the active record
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{active: make(map[string]int)}
}

// Len returns the total number of records, active and removed.
func (l *Ledger) Len() int { return len(l.records) }

// ActiveCount returns the number of records with status active.
func (l *Ledger) ActiveCount() int { return len(l.active) }

// FindActive returns a copy of the active record for key, if any.
func (l *Ledger) FindActive(key string) (model.AppearanceRecord, bool) {
	idx, ok := l.active[key]
	if !ok {
		return model.AppearanceRecord{}, false
	}
	return l.records[idx], true
}

// Insert appends a record. An active record whose key already has an
// active entry is rejected with ErrDuplicateActive.
func (l *Ledger) Insert(rec model.AppearanceRecord) error {
	if rec.Active() {
		key := rec.Key()
		if _, exists := l.active[key]; exists {
			return eris.Wrapf(ErrDuplicateActive, "%s", key)
		}
		l.active[key] = len(l.records)
	}
	l.records = append(l.records, rec)
	return nil
}

// Update applies mutate to the active record for key. If mutate leaves the
// record no longer active, the key is released.
func (l *Ledger) Update(key string, mutate func(*model.AppearanceRecord) error) error {
	idx, ok := l.active[key]
	if !ok {
		return eris.Wrapf(ErrNotFound, "%s", key)
	}
	rec := l.records[idx]
	if err := mutate(&rec); err != nil {
		return err
	}
	l.records[idx] = rec
	if !rec.Active() {
		delete(l.active, key)
	}
	return nil
}

// All returns a copy of every record in insertion order.
func (l *Ledger) All() []model.AppearanceRecord {
	out := make([]model.AppearanceRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ActiveKeys returns the set of keys with an active record.
func (l *Ledger) ActiveKeys() map[string]bool {
	keys := make(map[string]bool, len(l.active))
	for k := range l.active {
		keys[k] = true
	}
	return keys
}
