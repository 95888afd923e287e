package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func hostRecord(t EventType, p Payload) *EventRecord {
	return &EventRecord{
		ID:         EventID{0x01, 0xab},
		EventTime:  testTime,
		EventType:  t,
		ObjectType: ObjectHost,
		Host:       &Host{Name: "web01", DisplayName: "Web 01"},
		Payload:    p,
	}
}

func TestEventType_IsValid(t *testing.T) {
	for _, et := range EventTypes {
		assert.True(t, et.IsValid(), et)
		assert.NotEmpty(t, et.PayloadName(), et)
	}
	assert.False(t, EventType("bogus").IsValid())
	assert.Empty(t, EventType("bogus").PayloadName())
	assert.Len(t, EventTypes, 10)
}

func TestObjectType_Title(t *testing.T) {
	assert.Equal(t, "Host", ObjectHost.Title())
	assert.Equal(t, "Service", ObjectService.Title())
}

func TestEventID_RoundTrip(t *testing.T) {
	id, err := ParseEventID("01ab")
	require.NoError(t, err)
	assert.Equal(t, EventID{0x01, 0xab}, id)
	assert.Equal(t, "01ab", id.String())

	_, err = ParseEventID("zz")
	assert.Error(t, err)
	_, err = ParseEventID("")
	assert.Error(t, err)
}

func TestAccessors_MatchDiscriminant(t *testing.T) {
	rec := hostRecord(EventCommentAdd, &CommentHistory{Author: "alice", EntryTime: testTime})

	c, err := rec.Comment()
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Author)

	_, err = rec.Notification()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadMismatch)
	assert.True(t, IsIntegrityError(err))

	_, err = rec.Acknowledgement()
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestAccessors_RejectPayloadOfSiblingFamily(t *testing.T) {
	// a comment payload attached to a downtime event must not be readable
	rec := hostRecord(EventDowntimeStart, &CommentHistory{EntryTime: testTime})
	_, err := rec.Comment()
	assert.ErrorIs(t, err, ErrPayloadMismatch)
	_, err = rec.Downtime()
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestAccessors_NilPayload(t *testing.T) {
	var typedNil *StateHistory
	rec := hostRecord(EventStateChange, typedNil)
	s, err := rec.StateChange()
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrPayloadMismatch)

	rec.Payload = nil
	_, err = rec.StateChange()
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestValidate(t *testing.T) {
	end := testTime.Add(time.Hour)
	tests := []struct {
		name    string
		rec     *EventRecord
		field   string
		wantErr error
	}{
		{
			name: "valid flapping end",
			rec: hostRecord(EventFlappingEnd, &FlappingHistory{
				StartTime: testTime,
				EndTime:   &end,
			}),
		},
		{
			name:    "flapping end without end time",
			rec:     hostRecord(EventFlappingEnd, &FlappingHistory{StartTime: testTime}),
			field:   "flapping.end_time",
			wantErr: ErrMissingField,
		},
		{
			name:    "unknown event type",
			rec:     hostRecord("bogus", nil),
			field:   "event_type",
			wantErr: ErrUnknownEventType,
		},
		{
			name:    "wrong payload",
			rec:     hostRecord(EventAckSet, &StateHistory{StateType: StateHard}),
			field:   "acknowledgement",
			wantErr: ErrPayloadMismatch,
		},
		{
			name:    "typed nil payload",
			rec:     hostRecord(EventStateChange, (*StateHistory)(nil)),
			field:   "state",
			wantErr: ErrPayloadMismatch,
		},
		{
			name:    "typed nil payload of another family",
			rec:     hostRecord(EventFlappingEnd, (*AcknowledgementHistory)(nil)),
			field:   "flapping",
			wantErr: ErrPayloadMismatch,
		},
		{
			name:    "soft state without max attempts",
			rec:     hostRecord(EventStateChange, &StateHistory{StateType: StateSoft}),
			field:   "state.max_check_attempts",
			wantErr: ErrMissingField,
		},
		{
			name: "service record without service",
			rec: func() *EventRecord {
				r := hostRecord(EventAckSet, &AcknowledgementHistory{SetTime: testTime})
				r.ObjectType = ObjectService
				return r
			}(),
			field:   "service",
			wantErr: ErrMissingField,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)

			var ie *IntegrityError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.field, ie.Field)
		})
	}
}

func TestSortTimeline(t *testing.T) {
	older := &EventRecord{ID: EventID{0x09}, EventTime: testTime.Add(-time.Minute)}
	tieLow := &EventRecord{ID: EventID{0x01}, EventTime: testTime}
	tieHigh := &EventRecord{ID: EventID{0x02}, EventTime: testTime}
	newest := &EventRecord{ID: EventID{0x00}, EventTime: testTime.Add(time.Minute)}

	records := []*EventRecord{older, tieLow, newest, tieHigh}
	SortTimeline(records)

	assert.Equal(t, []*EventRecord{newest, tieHigh, tieLow, older}, records)
}

func TestEventRecord_JSON(t *testing.T) {
	rec := hostRecord(EventStateChange, &StateHistory{
		StateType: StateHard,
		HardState: 1,
		Output:    "PING CRITICAL",
	})

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"01ab"`)
	assert.Contains(t, string(data), `"state":{`)

	var decoded EventRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	s, err := decoded.StateChange()
	require.NoError(t, err)
	assert.Equal(t, "PING CRITICAL", s.Output)
	assert.Equal(t, rec.ID, decoded.ID)
}

func TestEventRecord_UnmarshalRejectsMismatch(t *testing.T) {
	raw := `{"id":"01","event_time":"2024-03-01T12:00:00Z","event_type":"ack_set",
		"object_type":"host","host":{"name":"h"},"comment":{"author":"a"}}`

	var rec EventRecord
	err := json.Unmarshal([]byte(raw), &rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadMismatch)

	raw = `{"id":"01","event_time":"2024-03-01T12:00:00Z","event_type":"comment_add",
		"object_type":"host","host":{"name":"h"},"comment":{"author":"a"},"flapping":{}}`
	err = json.Unmarshal([]byte(raw), &rec)
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestEventRecord_UnmarshalWithoutPayload(t *testing.T) {
	raw := `{"id":"01","event_time":"2024-03-01T12:00:00Z","event_type":"custom_thing",
		"object_type":"host","host":{"name":"h"}}`

	var rec EventRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Nil(t, rec.Payload)
	assert.Equal(t, EventType("custom_thing"), rec.EventType)
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload(EventAckClear, []byte(`{"author":"bob","cleared_by":"alice"}`))
	require.NoError(t, err)
	ack, ok := p.(*AcknowledgementHistory)
	require.True(t, ok)
	assert.Equal(t, "alice", ack.ClearedBy)

	_, err = DecodePayload("bogus", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)
}
