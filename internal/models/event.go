package models

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// EventType discriminates which payload an EventRecord carries.
type EventType string

const (
	EventNotification  EventType = "notification"
	EventStateChange   EventType = "state_change"
	EventDowntimeStart EventType = "downtime_start"
	EventDowntimeEnd   EventType = "downtime_end"
	EventCommentAdd    EventType = "comment_add"
	EventCommentRemove EventType = "comment_remove"
	EventFlappingStart EventType = "flapping_start"
	EventFlappingEnd   EventType = "flapping_end"
	EventAckSet        EventType = "ack_set"
	EventAckClear      EventType = "ack_clear"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	EventNotification,
	EventStateChange,
	EventDowntimeStart,
	EventDowntimeEnd,
	EventCommentAdd,
	EventCommentRemove,
	EventFlappingStart,
	EventFlappingEnd,
	EventAckSet,
	EventAckClear,
}

func (t EventType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the ten known event types.
func (t EventType) IsValid() bool {
	switch t {
	case EventNotification, EventStateChange,
		EventDowntimeStart, EventDowntimeEnd,
		EventCommentAdd, EventCommentRemove,
		EventFlappingStart, EventFlappingEnd,
		EventAckSet, EventAckClear:
		return true
	}
	return false
}

// PayloadName returns the name of the payload field used for t on the wire.
// Unknown types return an empty string.
func (t EventType) PayloadName() string {
	switch t {
	case EventNotification:
		return "notification"
	case EventStateChange:
		return "state"
	case EventDowntimeStart, EventDowntimeEnd:
		return "downtime"
	case EventCommentAdd, EventCommentRemove:
		return "comment"
	case EventFlappingStart, EventFlappingEnd:
		return "flapping"
	case EventAckSet, EventAckClear:
		return "acknowledgement"
	}
	return ""
}

// ObjectType names the kind of monitored object an event concerns.
type ObjectType string

const (
	ObjectHost    ObjectType = "host"
	ObjectService ObjectType = "service"
)

func (o ObjectType) String() string {
	return string(o)
}

// IsValid reports whether o is host or service.
func (o ObjectType) IsValid() bool {
	return o == ObjectHost || o == ObjectService
}

// Title returns the capitalised object type ("Host", "Service").
func (o ObjectType) Title() string {
	switch o {
	case ObjectHost:
		return "Host"
	case ObjectService:
		return "Service"
	}
	return string(o)
}

// EventID is the opaque binary identifier of a history entry.
type EventID []byte

// ParseEventID decodes the hex form used in URLs and JSON.
func ParseEventID(s string) (EventID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse event id: empty id")
	}
	return EventID(raw), nil
}

func (id EventID) String() string {
	return hex.EncodeToString(id)
}

// MarshalText encodes the id as lowercase hex.
func (id EventID) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(id)), nil
}

// UnmarshalText decodes a hex encoded id.
func (id *EventID) UnmarshalText(text []byte) error {
	raw := make([]byte, hex.DecodedLen(len(text)))
	n, err := hex.Decode(raw, text)
	if err != nil {
		return fmt.Errorf("decode event id: %w", err)
	}
	*id = raw[:n]
	return nil
}

// Equal reports whether both ids hold the same bytes.
func (id EventID) Equal(other EventID) bool {
	return bytes.Equal(id, other)
}

// EventRecord is one immutable entry of the monitoring history. Exactly one
// payload is attached and its concrete type is selected by EventType.
type EventRecord struct {
	ID         EventID
	EventTime  time.Time
	EventType  EventType
	ObjectType ObjectType
	Host       *Host
	Service    *Service
	Payload    Payload
}

// Validate checks the envelope and the required fields of the active payload.
func (e *EventRecord) Validate() error {
	if len(e.ID) == 0 {
		return e.integrity("id", ErrMissingField)
	}
	if e.EventTime.IsZero() {
		return e.integrity("event_time", ErrMissingField)
	}
	if !e.EventType.IsValid() {
		return e.integrity("event_type", ErrUnknownEventType)
	}
	if !e.ObjectType.IsValid() {
		return e.integrity("object_type", ErrUnknownObjectType)
	}
	if e.Host == nil {
		return e.integrity("host", ErrMissingField)
	}
	if e.ObjectType == ObjectService && e.Service == nil {
		return e.integrity("service", ErrMissingField)
	}
	if e.ObjectType == ObjectHost && e.Service != nil {
		return e.integrity("service", ErrUnexpectedField)
	}
	if isNilPayload(e.Payload) || !e.Payload.accepts(e.EventType) {
		return e.integrity(e.EventType.PayloadName(), ErrPayloadMismatch)
	}
	if field := e.Payload.missingField(e.EventType); field != "" {
		return e.integrity(e.EventType.PayloadName()+"."+field, ErrMissingField)
	}
	return nil
}

// Notification returns the notification payload.
func (e *EventRecord) Notification() (*NotificationHistory, error) {
	return payloadAs[*NotificationHistory](e)
}

// StateChange returns the state change payload.
func (e *EventRecord) StateChange() (*StateHistory, error) {
	return payloadAs[*StateHistory](e)
}

// Comment returns the comment payload of comment_add and comment_remove events.
func (e *EventRecord) Comment() (*CommentHistory, error) {
	return payloadAs[*CommentHistory](e)
}

// Downtime returns the downtime payload of downtime_start and downtime_end events.
func (e *EventRecord) Downtime() (*DowntimeHistory, error) {
	return payloadAs[*DowntimeHistory](e)
}

// Flapping returns the flapping payload.
func (e *EventRecord) Flapping() (*FlappingHistory, error) {
	return payloadAs[*FlappingHistory](e)
}

// Acknowledgement returns the acknowledgement payload.
func (e *EventRecord) Acknowledgement() (*AcknowledgementHistory, error) {
	return payloadAs[*AcknowledgementHistory](e)
}

// payloadAs never hands out a payload whose type disagrees with the
// discriminant, nor a nil payload with a nil error.
func payloadAs[T Payload](e *EventRecord) (T, error) {
	var zero T
	p, ok := e.Payload.(T)
	if !ok || isNilPayload(e.Payload) || !p.accepts(e.EventType) {
		return zero, e.integrity(e.EventType.PayloadName(), ErrPayloadMismatch)
	}
	return p, nil
}

// Less reports whether a is shown before b on the timeline: newest first,
// ties broken by descending id.
func Less(a, b *EventRecord) bool {
	if !a.EventTime.Equal(b.EventTime) {
		return a.EventTime.After(b.EventTime)
	}
	return bytes.Compare(a.ID, b.ID) > 0
}

// SortTimeline orders records for timeline display.
func SortTimeline(records []*EventRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(records[i], records[j])
	})
}

func (e *EventRecord) integrity(field string, err error) *IntegrityError {
	return &IntegrityError{
		ID:        e.ID,
		EventType: e.EventType,
		Field:     field,
		Err:       err,
	}
}
