package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type eventRecordJSON struct {
	ID              EventID                 `json:"id"`
	EventTime       time.Time               `json:"event_time"`
	EventType       EventType               `json:"event_type"`
	ObjectType      ObjectType              `json:"object_type"`
	Host            *Host                   `json:"host,omitempty"`
	Service         *Service                `json:"service,omitempty"`
	Notification    *NotificationHistory    `json:"notification,omitempty"`
	State           *StateHistory           `json:"state,omitempty"`
	Comment         *CommentHistory         `json:"comment,omitempty"`
	Downtime        *DowntimeHistory        `json:"downtime,omitempty"`
	Flapping        *FlappingHistory        `json:"flapping,omitempty"`
	Acknowledgement *AcknowledgementHistory `json:"acknowledgement,omitempty"`
}

// MarshalJSON writes the payload under its variant name, e.g. "state" for
// state_change events.
func (e EventRecord) MarshalJSON() ([]byte, error) {
	out := eventRecordJSON{
		ID:         e.ID,
		EventTime:  e.EventTime,
		EventType:  e.EventType,
		ObjectType: e.ObjectType,
		Host:       e.Host,
		Service:    e.Service,
	}
	switch p := e.Payload.(type) {
	case *NotificationHistory:
		out.Notification = p
	case *StateHistory:
		out.State = p
	case *CommentHistory:
		out.Comment = p
	case *DowntimeHistory:
		out.Downtime = p
	case *FlappingHistory:
		out.Flapping = p
	case *AcknowledgementHistory:
		out.Acknowledgement = p
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts at most one payload and rejects payloads that do not
// belong to the event type. A record without payload decodes successfully;
// consumers decide how to treat it.
func (e *EventRecord) UnmarshalJSON(data []byte) error {
	var in eventRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	rec := EventRecord{
		ID:         in.ID,
		EventTime:  in.EventTime,
		EventType:  in.EventType,
		ObjectType: in.ObjectType,
		Host:       in.Host,
		Service:    in.Service,
	}

	candidates := []Payload{}
	if in.Notification != nil {
		candidates = append(candidates, in.Notification)
	}
	if in.State != nil {
		candidates = append(candidates, in.State)
	}
	if in.Comment != nil {
		candidates = append(candidates, in.Comment)
	}
	if in.Downtime != nil {
		candidates = append(candidates, in.Downtime)
	}
	if in.Flapping != nil {
		candidates = append(candidates, in.Flapping)
	}
	if in.Acknowledgement != nil {
		candidates = append(candidates, in.Acknowledgement)
	}

	switch len(candidates) {
	case 0:
	case 1:
		if !candidates[0].accepts(rec.EventType) {
			return rec.integrity(rec.EventType.PayloadName(), ErrPayloadMismatch)
		}
		rec.Payload = candidates[0]
	default:
		return rec.integrity("payload", fmt.Errorf("%w: %d payloads present", ErrPayloadMismatch, len(candidates)))
	}

	*e = rec
	return nil
}

// DecodePayload decodes a raw payload document for the given event type.
func DecodePayload(t EventType, raw []byte) (Payload, error) {
	var p Payload
	switch t {
	case EventNotification:
		p = &NotificationHistory{}
	case EventStateChange:
		p = &StateHistory{}
	case EventCommentAdd, EventCommentRemove:
		p = &CommentHistory{}
	case EventDowntimeStart, EventDowntimeEnd:
		p = &DowntimeHistory{}
	case EventFlappingStart, EventFlappingEnd:
		p = &FlappingHistory{}
	case EventAckSet, EventAckClear:
		p = &AcknowledgementHistory{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t.PayloadName(), err)
	}
	return p, nil
}
