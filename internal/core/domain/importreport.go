package domain

import "fmt"

// ImportRowError records a single rejected row. Line is the 1-based data-row
// index, excluding the CSV header.
type ImportRowError struct {
	Line  int
	Error string
}

// ImportReport summarizes one guest-import run. Duplicate rows count towards
// Skipped but are not listed under Errors: a duplicate is an expected outcome,
// not a failure.
type ImportReport struct {
	Total    int
	Inserted int
	Updated  int
	Skipped  int
	Errors   []ImportRowError
}

// AddError marks the row as skipped and records the reason.
func (r *ImportReport) AddError(line int, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, ImportRowError{Line: line, Error: reason})
}

// Summary renders the one-line operator summary printed at the end of a run.
func (r *ImportReport) Summary() string {
	return fmt.Sprintf("total=%d inserted=%d updated=%d skipped=%d errors=%d",
		r.Total, r.Inserted, r.Updated, r.Skipped, len(r.Errors))
}
