package amqp

import (
	"encoding/json"
	"time"
)

// RecordSyncMessage asks the worker to mirror one ledger record. It carries
// only the record's identity; the worker fetches the full row from storage so
// the queue never holds stale payloads.
type RecordSyncMessage struct {
	RecordType string    `json:"record_type"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordSyncMessage creates a sync message for a record.
func NewRecordSyncMessage(recordType, id string) *RecordSyncMessage {
	return &RecordSyncMessage{
		RecordType: recordType,
		ID:         id,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON creates a message from JSON bytes.
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
