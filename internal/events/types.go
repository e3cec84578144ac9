// Package events provides the in-process event bus for training and maintenance events.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	TrainingStarted   EventType = "TRAINING_STARTED"
	TrainingProgress  EventType = "TRAINING_PROGRESS"
	TrainingCompleted EventType = "TRAINING_COMPLETED"
	TrainingFailed    EventType = "TRAINING_FAILED"
	ModelDeleted      EventType = "MODEL_DELETED"
	BackupCompleted   EventType = "BACKUP_COMPLETED"
	SystemStatus      EventType = "SYSTEM_STATUS_CHANGED"
	ErrorOccurred     EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every event type, in declaration order.
var AllEventTypes = []EventType{
	TrainingStarted,
	TrainingProgress,
	TrainingCompleted,
	TrainingFailed,
	ModelDeleted,
	BackupCompleted,
	SystemStatus,
	ErrorOccurred,
}

// Event is a single emitted event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data,omitempty"`
}
