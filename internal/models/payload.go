package models

import "time"

// Payload is the variant part of an EventRecord. The set of implementations
// is closed: only the history types in this package satisfy it.
type Payload interface {
	accepts(t EventType) bool
	missingField(t EventType) string
}

// NotificationType classifies why a notification was sent.
type NotificationType string

const (
	NotificationProblem         NotificationType = "problem"
	NotificationRecovery        NotificationType = "recovery"
	NotificationAcknowledgement NotificationType = "acknowledgement"
	NotificationCustom          NotificationType = "custom"
	NotificationDowntimeStart   NotificationType = "downtime_start"
	NotificationDowntimeEnd     NotificationType = "downtime_end"
	NotificationDowntimeRemoved NotificationType = "downtime_removed"
	NotificationFlappingStart   NotificationType = "flapping_start"
	NotificationFlappingEnd     NotificationType = "flapping_end"
)

// IsValid reports whether the notification type is known.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationProblem, NotificationRecovery, NotificationAcknowledgement,
		NotificationCustom, NotificationDowntimeStart, NotificationDowntimeEnd,
		NotificationDowntimeRemoved, NotificationFlappingStart, NotificationFlappingEnd:
		return true
	}
	return false
}

// NotificationHistory is the payload of notification events. The list of
// notified users is not part of the payload and is fetched on demand.
type NotificationHistory struct {
	Author            string           `json:"author,omitempty"`
	Text              string           `json:"text"`
	Type              NotificationType `json:"type"`
	SendTime          time.Time        `json:"send_time"`
	PreviousHardState int              `json:"previous_hard_state"`
	State             int              `json:"state"`
	UsersNotified     int              `json:"users_notified"`
}

func (*NotificationHistory) accepts(t EventType) bool {
	return t == EventNotification
}

func (n *NotificationHistory) missingField(EventType) string {
	switch {
	case n.Type == "":
		return "type"
	case n.SendTime.IsZero():
		return "send_time"
	}
	return ""
}

// StateType tells whether a state is confirmed (hard) or still retried (soft).
type StateType string

const (
	StateSoft StateType = "soft"
	StateHard StateType = "hard"
)

// StateHistory is the payload of state_change events.
type StateHistory struct {
	StateType         StateType `json:"state_type"`
	SoftState         int       `json:"soft_state"`
	HardState         int       `json:"hard_state"`
	PreviousSoftState int       `json:"previous_soft_state"`
	PreviousHardState int       `json:"previous_hard_state"`
	Attempt           int       `json:"attempt"`
	MaxCheckAttempts  int       `json:"max_check_attempts"`
	CheckSource       string    `json:"check_source,omitempty"`
	Output            string    `json:"output,omitempty"`
	LongOutput        string    `json:"long_output,omitempty"`
	EventTime         time.Time `json:"event_time"`
}

func (*StateHistory) accepts(t EventType) bool {
	return t == EventStateChange
}

func (s *StateHistory) missingField(EventType) string {
	if s.StateType != StateSoft && s.StateType != StateHard {
		return "state_type"
	}
	if s.StateType == StateSoft && s.MaxCheckAttempts <= 0 {
		return "max_check_attempts"
	}
	return ""
}

// EffectiveState is the hard state for hard state changes and the soft state
// otherwise.
func (s *StateHistory) EffectiveState() int {
	if s.StateType == StateHard {
		return s.HardState
	}
	return s.SoftState
}

// CommentEntryType distinguishes plain user comments from comments that were
// created alongside an acknowledgement.
type CommentEntryType string

const (
	CommentEntryUser CommentEntryType = "user"
	CommentEntryAck  CommentEntryType = "ack"
)

// CommentHistory is the payload of comment_add and comment_remove events.
type CommentHistory struct {
	Author         string           `json:"author"`
	Comment        string           `json:"comment"`
	EntryTime      time.Time        `json:"entry_time"`
	ExpireTime     *time.Time       `json:"expire_time,omitempty"`
	RemovedBy      string           `json:"removed_by,omitempty"`
	RemoveTime     *time.Time       `json:"remove_time,omitempty"`
	IsSticky       bool             `json:"is_sticky"`
	IsPersistent   bool             `json:"is_persistent"`
	EntryType      CommentEntryType `json:"entry_type"`
	HasBeenRemoved bool             `json:"has_been_removed"`
}

func (*CommentHistory) accepts(t EventType) bool {
	return t == EventCommentAdd || t == EventCommentRemove
}

func (c *CommentHistory) missingField(EventType) string {
	if c.EntryTime.IsZero() {
		return "entry_time"
	}
	return ""
}

// DowntimeHistory is the payload of downtime_start and downtime_end events.
type DowntimeHistory struct {
	Author             string        `json:"author"`
	Comment            string        `json:"comment"`
	EntryTime          time.Time     `json:"entry_time"`
	ScheduledStartTime time.Time     `json:"scheduled_start_time"`
	ScheduledEndTime   time.Time     `json:"scheduled_end_time"`
	StartTime          *time.Time    `json:"start_time,omitempty"`
	EndTime            *time.Time    `json:"end_time,omitempty"`
	IsFlexible         bool          `json:"is_flexible"`
	FlexibleDuration   time.Duration `json:"flexible_duration,omitempty"`
	HasBeenCancelled   bool          `json:"has_been_cancelled"`
	CancelledBy        string        `json:"cancelled_by,omitempty"`
	CancelTime         *time.Time    `json:"cancel_time,omitempty"`
}

func (*DowntimeHistory) accepts(t EventType) bool {
	return t == EventDowntimeStart || t == EventDowntimeEnd
}

func (d *DowntimeHistory) missingField(EventType) string {
	switch {
	case d.EntryTime.IsZero():
		return "entry_time"
	case d.ScheduledStartTime.IsZero():
		return "scheduled_start_time"
	case d.ScheduledEndTime.IsZero():
		return "scheduled_end_time"
	}
	return ""
}

// FlappingHistory is the payload of flapping_start and flapping_end events.
type FlappingHistory struct {
	StartTime               time.Time  `json:"start_time"`
	EndTime                 *time.Time `json:"end_time,omitempty"`
	PercentStateChangeStart float64    `json:"percent_state_change_start"`
	PercentStateChangeEnd   float64    `json:"percent_state_change_end"`
	FlappingThresholdHigh   float64    `json:"flapping_threshold_high"`
	FlappingThresholdLow    float64    `json:"flapping_threshold_low"`
}

func (*FlappingHistory) accepts(t EventType) bool {
	return t == EventFlappingStart || t == EventFlappingEnd
}

func (f *FlappingHistory) missingField(t EventType) string {
	if f.StartTime.IsZero() {
		return "start_time"
	}
	if t == EventFlappingEnd && f.EndTime == nil {
		return "end_time"
	}
	return ""
}

// AcknowledgementHistory is the payload of ack_set and ack_clear events.
type AcknowledgementHistory struct {
	Author       string     `json:"author,omitempty"`
	Comment      string     `json:"comment,omitempty"`
	SetTime      time.Time  `json:"set_time"`
	ExpireTime   *time.Time `json:"expire_time,omitempty"`
	ClearTime    *time.Time `json:"clear_time,omitempty"`
	ClearedBy    string     `json:"cleared_by,omitempty"`
	IsSticky     bool       `json:"is_sticky"`
	IsPersistent bool       `json:"is_persistent"`
}

func (*AcknowledgementHistory) accepts(t EventType) bool {
	return t == EventAckSet || t == EventAckClear
}

func (a *AcknowledgementHistory) missingField(EventType) string {
	if a.SetTime.IsZero() {
		return "set_time"
	}
	return ""
}

func isNilPayload(p Payload) bool {
	switch v := p.(type) {
	case nil:
		return true
	case *NotificationHistory:
		return v == nil
	case *StateHistory:
		return v == nil
	case *CommentHistory:
		return v == nil
	case *DowntimeHistory:
		return v == nil
	case *FlappingHistory:
		return v == nil
	case *AcknowledgementHistory:
		return v == nil
	}
	return false
}
