package model

import "time"

// ChangeEvent summarizes one reconciliation run. Events are append-only:
// once written to the change log they are never mutated.
type ChangeEvent struct {
	Date        time.Time `json:"date"`
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	TotalActive int       `json:"total_active"`
}
