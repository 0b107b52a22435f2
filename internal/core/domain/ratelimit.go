package domain

import "time"

// RateLimitResult reports the outcome of a single quota check. A denied check
// is a well-defined negative result, not an error: callers translate it into a
// throttling response carrying ResetTime so clients can show a countdown.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}
