package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_CombinedType(t *testing.T) {
	payload := map[string]interface{}{"id": 1, "name": "Ahmed"}

	before := time.Now().UTC()
	evt := NewEvent(EventTypeCreated, EntityTypeCustomer, payload)
	after := time.Now().UTC()

	assert.Equal(t, "customer.created", evt.Type)
	assert.Equal(t, EntityTypeCustomer, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		evt      Event
		expected string
	}{
		{"customer created", CustomerCreated(nil), "customer.created"},
		{"customer updated", CustomerUpdated(nil), "customer.updated"},
		{"customer deleted", CustomerDeleted(nil), "customer.deleted"},
		{"account updated", AccountUpdated(nil), "account.updated"},
		{"schedule updated", ScheduleUpdated(nil), "schedule.updated"},
		{"application created", ApplicationCreated(nil), "application.created"},
		{"application updated", ApplicationUpdated(nil), "application.updated"},
		{"application deleted", ApplicationDeleted(nil), "application.deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.evt.Type)
		})
	}
}

func TestEvent_ToJSON_RoundTrip(t *testing.T) {
	fixedTime := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	evt := Event{
		Type:      "schedule.updated",
		Entity:    EntityTypeSchedule,
		Payload:   map[string]interface{}{"transactionId": float64(7)},
		Timestamp: fixedTime,
	}

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, evt.Payload, decoded.Payload)
	assert.True(t, evt.Timestamp.Equal(decoded.Timestamp))
}
