package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bluemoon/internal/core"
)

// NotificationBatchMessage carries one publish of notification events from
// the engine to the notification-storage worker. The worker persists each
// event; it never re-derives obligation state.
type NotificationBatchMessage struct {
	BatchID   string                   `json:"batchId"`
	Source    string                   `json:"source"`
	Events    []core.NotificationEvent `json:"events"`
	Timestamp time.Time                `json:"timestamp"`
}

func NewNotificationBatchMessage(source string, events []core.NotificationEvent) *NotificationBatchMessage {
	return &NotificationBatchMessage{
		BatchID:   uuid.NewString(),
		Source:    source,
		Events:    events,
		Timestamp: time.Now(),
	}
}

func (m *NotificationBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationBatchMessageFromJSON(data []byte) (*NotificationBatchMessage, error) {
	var msg NotificationBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
