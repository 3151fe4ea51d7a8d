package realtime

import (
	"encoding/json"
	"time"
)

const EnvelopeVersion = 1

// Envelope is the relay wire format on the Kafka topic.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // entity id
	Payload       json.RawMessage `json:"payload"`
}

// EntityID pulls the id out of an event payload: either a bare JSON
// string (delete events) or an object carrying "_id".
func EntityID(data json.RawMessage) string {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func NewEnvelope(ev Event, producer string) Envelope {
	return Envelope{
		EventID:       ev.ID,
		EventType:     ev.Name,
		EventVersion:  EnvelopeVersion,
		OccurredAt:    ev.OccurredAt,
		Producer:      producer,
		CorrelationID: EntityID(ev.Data),
		Payload:       ev.Data,
	}
}
