// Package queue defines message payloads exchanged over the message broker
// and the worker that consumes them.
package queue

import "time"

// ActivityQueue is the durable queue carrying ActivityEvents.
const ActivityQueue = "cactilog.activity"

// Activity event types.
const (
	PlantCreated   = "plant.created"
	PlantUpdated   = "plant.updated"
	PlantDeleted   = "plant.deleted"
	GrowthRecorded = "growth.recorded"
	PhotoUploaded  = "photo.uploaded"
	SeedCreated    = "seed.created"
)

// ActivityEvent is published after a collection change has been committed.
// It carries enough to write an activity line without querying the
// database.
type ActivityEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	EntityID   int64     `json:"entity_id"`
	PlantID    int64     `json:"plant_id,omitempty"`
	Genus      string    `json:"genus,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewActivityEvent stamps an event with the current time.
func NewActivityEvent(typ, userID string, entityID int64) ActivityEvent {
	return ActivityEvent{Type: typ, UserID: userID, EntityID: entityID, OccurredAt: time.Now().UTC()}
}
