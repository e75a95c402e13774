// Package services implements the progression engine: submissions, the
// unlock ledger, scene unlocking, vocabulary scheduling, streaks and
// achievements.
package services

import "time"

// Clock supplies the current time so tests can freeze it
type Clock interface {
	// UtcNow returns the current instant in UTC
	UtcNow() time.Time
}

// UTCClock is the production clock
type UTCClock struct{}

// UtcNow returns time.Now in UTC
func (UTCClock) UtcNow() time.Time {
	return time.Now().UTC()
}
