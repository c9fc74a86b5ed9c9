package vigil

import "time"

// Entity holds the timestamps shared by every persisted record. UpdatedAt
// drives staleness detection: pipeline producers must touch it on each
// status transition or their records will eventually be flagged as stuck.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity with both timestamps set to the current UTC
// time.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch advances UpdatedAt to the current UTC time.
func (e *Entity) Touch() { e.UpdatedAt = time.Now().UTC() }

// Age reports how long the entity has gone without an update, relative to
// now.
func (e Entity) Age(now time.Time) time.Duration { return now.Sub(e.UpdatedAt) }
