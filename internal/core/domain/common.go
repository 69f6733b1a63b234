package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// Clock supplies the current time to services. Injecting it keeps entry
// dates and audit timestamps deterministic under test.
type Clock interface {
	Now() time.Time
}

// UTCClock is the production Clock, always in UTC.
type UTCClock struct{}

func (UTCClock) Now() time.Time { return time.Now().UTC() }
