package websocket

import (
	"encoding/json"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Change event names published once per successful state transition.
// Delivery is best-effort and at-most-once; clients that miss an event
// recover by re-fetching, never by replaying the stream.
const (
	EventRequestCreated       = "REQUEST_CREATED"
	EventRequestApproved      = "REQUEST_APPROVED"
	EventRequestRejected      = "REQUEST_REJECTED"
	EventRequestCancelled     = "REQUEST_CANCELLED"
	EventRequestStateChanged  = "REQUEST_STATE_CHANGED"
	EventNotificationCreated  = "NOTIFICATION_CREATED"
	EventNotificationRead     = "NOTIFICATION_READ"
	EventNotificationsCleared = "NOTIFICATIONS_CLEARED"
)

// EventPayload identifies what changed. Ids the event does not concern are
// left at their zero value.
type EventPayload struct {
	RequestID uuid.UUID `json:"request_id"`
	UserID    uuid.UUID `json:"user_id"`
}

type envelope struct {
	Event   string       `json:"event"`
	Payload EventPayload `json:"payload"`
}

// Publish broadcasts a change event to all connected clients. It never
// blocks the caller: if the hub's queue is full the event is dropped and
// clients converge via their next poll.
func (h *Hub) Publish(event string, payload EventPayload) {
	message, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		log.WithError(err).WithField("event", event).Error("Failed to encode change event")
		return
	}
	select {
	case h.Broadcast <- message:
	default:
		log.WithField("event", event).Warn("Event queue full, dropping change event")
	}
}
