package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeCustomer    EntityType = "customer"
	EntityTypeAccount     EntityType = "account"
	EntityTypeSchedule    EntityType = "schedule"
	EntityTypeApplication EntityType = "application"
)

// Event represents a WebSocket event message sent to back-office
// clients. Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "customer.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "customer"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CustomerCreated creates a customer.created event
func CustomerCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCustomer, payload)
}

// CustomerUpdated creates a customer.updated event
func CustomerUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCustomer, payload)
}

// CustomerDeleted creates a customer.deleted event
func CustomerDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCustomer, payload)
}

// AccountUpdated creates an account.updated event
func AccountUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeAccount, payload)
}

// ScheduleUpdated creates a schedule.updated event
func ScheduleUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSchedule, payload)
}

// ApplicationCreated creates an application.created event
func ApplicationCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeApplication, payload)
}

// ApplicationUpdated creates an application.updated event
func ApplicationUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeApplication, payload)
}

// ApplicationDeleted creates an application.deleted event
func ApplicationDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeApplication, payload)
}
