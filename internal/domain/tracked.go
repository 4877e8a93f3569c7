package domain

import "time"

// TrackedPool is a pool address actively polled by the scheduler.
// Membership and priority are managed by the external discovery
// collaborator; the engine only reads the set and bumps LastCheckedAt.
type TrackedPool struct {
	Address       string
	Priority      int
	LastCheckedAt time.Time
}
