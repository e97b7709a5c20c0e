// Package messaging carries the order feed from the ordering platform into
// this service. Messages travel over MQTT or Kafka in a common JSON envelope;
// two-stage decoding picks the payload type from msg_type.
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"platewatch/catalog"
)

const (
	MsgActiveOrders  = "active_orders"
	MsgStatusChanged = "status_changed"
)

// Envelope wraps every feed message.
type Envelope struct {
	MsgType string    `json:"msg_type"`
	MsgID   string    `json:"msg_id"`
	Source  string    `json:"source"`
	SentAt  time.Time `json:"sent_at"`
	Payload any       `json:"payload"`
}

// ActiveOrders is a wholesale snapshot of every order the kitchen should be
// tracking. Orders missing from it are no longer active.
type ActiveOrders struct {
	Orders []catalog.Order `json:"orders"`
}

// StatusChanged patches a single order between snapshots.
type StatusChanged struct {
	OrderID   string              `json:"order_id"`
	Status    catalog.OrderStatus `json:"status"`
	ChangedAt time.Time           `json:"changed_at"`
}

// rawEnvelope defers payload decoding until msg_type is known.
type rawEnvelope struct {
	MsgType string          `json:"msg_type"`
	MsgID   string          `json:"msg_id"`
	Source  string          `json:"source"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEnvelope unmarshals a raw message into an Envelope with a typed payload.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	env := &Envelope{
		MsgType: raw.MsgType,
		MsgID:   raw.MsgID,
		Source:  raw.Source,
		SentAt:  raw.SentAt,
	}

	switch raw.MsgType {
	case MsgActiveOrders:
		var p ActiveOrders
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode active_orders payload: %w", err)
		}
		env.Payload = p
	case MsgStatusChanged:
		var p StatusChanged
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode status_changed payload: %w", err)
		}
		env.Payload = p
	default:
		return nil, fmt.Errorf("unknown msg_type: %s", raw.MsgType)
	}
	return env, nil
}

// NewEnvelope creates an outbound envelope with a fresh UUID and timestamp.
func NewEnvelope(msgType, source string, payload any) *Envelope {
	return &Envelope{
		MsgType: msgType,
		MsgID:   uuid.New().String(),
		Source:  source,
		SentAt:  time.Now(),
		Payload: payload,
	}
}

// Encode marshals an envelope to JSON.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
