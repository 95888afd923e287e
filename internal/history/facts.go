package history

import (
	"time"

	"historyview/internal/i18n"
	"historyview/internal/models"
)

// Icon is the visual kind shown next to a timeline entry.
type Icon string

const (
	IconNone         Icon = ""
	IconComment      Icon = "comment"
	IconRemove       Icon = "remove"
	IconInDowntime   Icon = "in_downtime"
	IconAcknowledged Icon = "is_acknowledged"
	IconFlapping     Icon = "is_flapping"
	IconNotification Icon = "notification"
	IconUser         Icon = "user"
)

// CheckAttempt is the soft-state retry indicator.
type CheckAttempt struct {
	Attempt     int `json:"attempt"`
	MaxAttempts int `json:"max_attempts"`
}

// StateChange is the before/after state ball pair of a state change.
type StateChange struct {
	Previous string        `json:"previous"`
	Current  string        `json:"current"`
	Attempt  *CheckAttempt `json:"attempt,omitempty"`
}

// Caption is the one-line summary under the title.
type Caption struct {
	Author       string `json:"author,omitempty"`
	Text         string `json:"text"`
	PluginOutput bool   `json:"plugin_output,omitempty"`
}

// Facts is everything a timeline row displays for one record.
type Facts struct {
	ID         models.EventID    `json:"id"`
	EventType  models.EventType  `json:"event_type"`
	ObjectType models.ObjectType `json:"object_type"`
	Time       time.Time         `json:"time"`
	Title      string            `json:"title"`
	Subject    string            `json:"subject"`
	Caption    *Caption          `json:"caption,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Icon       Icon              `json:"icon,omitempty"`
	Visual     *StateChange      `json:"visual,omitempty"`
}

// Resolver derives display facts from history records. It holds no state
// besides the formatter, so results only depend on the record and now.
type Resolver struct {
	format i18n.Formatter
}

// NewResolver creates a resolver rendering text through f.
func NewResolver(f i18n.Formatter) *Resolver {
	return &Resolver{format: f}
}

// Resolve computes the facts of rec. now is the reference time for expiry
// decisions. Unknown event types, missing payloads and missing required
// fields yield an *models.IntegrityError.
func (r *Resolver) Resolve(rec *models.EventRecord, now time.Time) (Facts, error) {
	if err := rec.Validate(); err != nil {
		return Facts{}, err
	}

	facts := Facts{
		ID:         rec.ID,
		EventType:  rec.EventType,
		ObjectType: rec.ObjectType,
		Time:       rec.EventTime,
		Subject:    r.subject(rec),
	}

	var err error
	switch rec.EventType {
	case models.EventNotification:
		err = r.notificationFacts(rec, &facts)
	case models.EventStateChange:
		err = r.stateChangeFacts(rec, &facts)
	case models.EventCommentAdd, models.EventCommentRemove:
		err = r.commentFacts(rec, &facts)
	case models.EventDowntimeStart, models.EventDowntimeEnd:
		err = r.downtimeFacts(rec, &facts)
	case models.EventFlappingStart, models.EventFlappingEnd:
		err = r.flappingFacts(rec, &facts)
	case models.EventAckSet, models.EventAckClear:
		err = r.acknowledgementFacts(rec, &facts, now)
	default:
		err = &models.IntegrityError{ID: rec.ID, EventType: rec.EventType, Field: "event_type", Err: models.ErrUnknownEventType}
	}
	if err != nil {
		return Facts{}, err
	}
	return facts, nil
}

func (r *Resolver) subject(rec *models.EventRecord) string {
	if rec.ObjectType == models.ObjectService {
		return r.format.Sprintf(i18n.MsgOnHost, rec.Service.Label(), rec.Host.Label())
	}
	return rec.Host.Label()
}

func (r *Resolver) objectLabel(o models.ObjectType) string {
	if o == models.ObjectService {
		return r.format.Sprintf(i18n.MsgService)
	}
	return r.format.Sprintf(i18n.MsgHost)
}

func (r *Resolver) recovered(o models.ObjectType) string {
	if o == models.ObjectService {
		return r.format.Sprintf(i18n.MsgServiceRecovered)
	}
	return r.format.Sprintf(i18n.MsgHostRecovered)
}

func (r *Resolver) notificationFacts(rec *models.EventRecord, f *Facts) error {
	n, err := rec.Notification()
	if err != nil {
		return err
	}
	title, err := r.notificationTitle(rec, n.Type)
	if err != nil {
		return err
	}
	f.Title = title
	f.Icon = IconNotification
	if n.Author != "" {
		f.Caption = &Caption{Author: n.Author, Text: n.Text}
	} else {
		f.Caption = &Caption{Text: n.Text, PluginOutput: true}
	}
	return nil
}

func (r *Resolver) notificationTitle(rec *models.EventRecord, t models.NotificationType) (string, error) {
	switch t {
	case models.NotificationProblem:
		return r.format.Sprintf(i18n.MsgNotificationProblem, r.objectLabel(rec.ObjectType)), nil
	case models.NotificationRecovery:
		return r.format.Sprintf(i18n.MsgNotificationRecovery, r.objectLabel(rec.ObjectType)), nil
	case models.NotificationAcknowledgement:
		return r.format.Sprintf(i18n.MsgNotificationAcknowledgement), nil
	case models.NotificationCustom:
		return r.format.Sprintf(i18n.MsgNotificationCustom), nil
	case models.NotificationDowntimeStart:
		return r.format.Sprintf(i18n.MsgDowntimeStarted), nil
	case models.NotificationDowntimeEnd:
		return r.format.Sprintf(i18n.MsgDowntimeEnded), nil
	case models.NotificationDowntimeRemoved:
		return r.format.Sprintf(i18n.MsgDowntimeRemoved), nil
	case models.NotificationFlappingStart:
		return r.format.Sprintf(i18n.MsgFlappingStarted), nil
	case models.NotificationFlappingEnd:
		return r.format.Sprintf(i18n.MsgFlappingStopped), nil
	}
	return "", &models.IntegrityError{ID: rec.ID, EventType: rec.EventType, Field: "notification.type", Err: models.ErrInvalidValue}
}

func (r *Resolver) stateChangeFacts(rec *models.EventRecord, f *Facts) error {
	s, err := rec.StateChange()
	if err != nil {
		return err
	}
	visual, err := r.stateVisual(rec, s.PreviousSoftState, s.EffectiveState())
	if err != nil {
		return err
	}
	if s.StateType == models.StateSoft {
		visual.Attempt = &CheckAttempt{Attempt: s.Attempt, MaxAttempts: s.MaxCheckAttempts}
	}

	switch {
	case s.EffectiveState() == StateOK:
		f.Title = r.recovered(rec.ObjectType)
	case s.StateType == models.StateHard:
		f.Title = r.format.Sprintf(i18n.MsgHardStateChanged)
	default:
		f.Title = r.format.Sprintf(i18n.MsgSoftStateChanged)
	}
	f.Visual = visual
	f.Caption = &Caption{Text: s.Output, PluginOutput: true}
	return nil
}

func (r *Resolver) stateVisual(rec *models.EventRecord, previous, current int) (*StateChange, error) {
	prev, err := StateText(rec.ObjectType, previous)
	if err != nil {
		return nil, &models.IntegrityError{ID: rec.ID, EventType: rec.EventType, Field: "previous state", Err: err}
	}
	cur, err := StateText(rec.ObjectType, current)
	if err != nil {
		return nil, &models.IntegrityError{ID: rec.ID, EventType: rec.EventType, Field: "state", Err: err}
	}
	return &StateChange{Previous: prev, Current: cur}, nil
}

func (r *Resolver) commentFacts(rec *models.EventRecord, f *Facts) error {
	c, err := rec.Comment()
	if err != nil {
		return err
	}
	f.Caption = &Caption{Author: c.Author, Text: c.Comment}
	if rec.EventType == models.EventCommentAdd {
		f.Title = r.format.Sprintf(i18n.MsgCommentAdded)
		f.Icon = IconComment
		return nil
	}

	f.Icon = IconRemove
	switch {
	case c.RemovedBy != "" && c.RemovedBy != c.Author:
		f.Title = r.format.Sprintf(i18n.MsgCommentRemovedBy, c.RemovedBy)
	case c.RemovedBy != "":
		f.Title = r.format.Sprintf(i18n.MsgCommentRemovedByAuthor)
	case c.ExpireTime != nil:
		f.Title = r.format.Sprintf(i18n.MsgCommentExpired)
	default:
		f.Title = r.format.Sprintf(i18n.MsgCommentRemoved)
	}
	return nil
}

func (r *Resolver) downtimeFacts(rec *models.EventRecord, f *Facts) error {
	d, err := rec.Downtime()
	if err != nil {
		return err
	}
	f.Caption = &Caption{Author: d.Author, Text: d.Comment}
	if rec.EventType == models.EventDowntimeStart {
		f.Title = r.format.Sprintf(i18n.MsgDowntimeStarted)
		f.Icon = IconInDowntime
		return nil
	}

	f.Icon = IconRemove
	switch {
	case d.CancelledBy != "" && d.CancelledBy != d.Author:
		f.Title = r.format.Sprintf(i18n.MsgDowntimeCancelledBy, d.CancelledBy)
	case d.CancelledBy != "":
		f.Title = r.format.Sprintf(i18n.MsgDowntimeCancelledByAuthor)
	case d.CancelTime != nil:
		f.Title = r.format.Sprintf(i18n.MsgDowntimeCancelled)
	default:
		f.Title = r.format.Sprintf(i18n.MsgDowntimeEnded)
	}
	return nil
}

func (r *Resolver) flappingFacts(rec *models.EventRecord, f *Facts) error {
	fl, err := rec.Flapping()
	if err != nil {
		return err
	}
	f.Icon = IconFlapping
	if rec.EventType == models.EventFlappingStart {
		f.Title = r.format.Sprintf(i18n.MsgFlappingStarted)
	} else {
		f.Title = r.format.Sprintf(i18n.MsgFlappingStopped)
	}
	f.Caption = &Caption{Text: r.flappingNarrative(rec.EventType, fl), PluginOutput: true}
	return nil
}

// flappingNarrative expects a validated payload: flapping_end always carries
// an end time.
func (r *Resolver) flappingNarrative(t models.EventType, fl *models.FlappingHistory) string {
	if t == models.EventFlappingStart {
		return r.format.Sprintf(i18n.MsgFlappingStartNarrative,
			fl.PercentStateChangeStart, fl.FlappingThresholdHigh)
	}
	return r.format.Sprintf(i18n.MsgFlappingEndNarrative,
		fl.PercentStateChangeEnd, fl.FlappingThresholdLow,
		r.format.Duration(fl.EndTime.Sub(fl.StartTime)))
}

func (r *Resolver) acknowledgementFacts(rec *models.EventRecord, f *Facts, now time.Time) error {
	a, err := rec.Acknowledgement()
	if err != nil {
		return err
	}
	f.Caption = &Caption{Author: a.Author, Text: a.Comment}
	if rec.EventType == models.EventAckSet {
		f.Title = r.format.Sprintf(i18n.MsgAckSet)
		f.Icon = IconAcknowledged
		return nil
	}

	f.Icon = IconRemove
	switch {
	case a.ClearedBy != "" && a.ClearedBy != a.Author:
		f.Title = r.format.Sprintf(i18n.MsgAckClearedBy, a.ClearedBy)
	case a.ClearedBy != "":
		f.Title = r.format.Sprintf(i18n.MsgAckClearedByAuthor)
	case a.ExpireTime != nil:
		f.Title = r.format.Sprintf(i18n.MsgAckExpired)
	default:
		f.Title = r.format.Sprintf(i18n.MsgAckCleared)
	}
	f.Reason = r.ackClearReason(rec.ObjectType, a, now)
	return nil
}

// ackClearReason explains why an acknowledgement went away. The branches are
// exclusive and evaluated in order: manual clear, expiry, sticky recovery,
// plain state change. Hosts only know up and down, so any change that clears
// a non-sticky host acknowledgement is a recovery.
func (r *Resolver) ackClearReason(o models.ObjectType, a *models.AcknowledgementHistory, now time.Time) string {
	switch {
	case a.ClearedBy != "":
		return r.format.Sprintf(i18n.MsgReasonClearedBy, a.ClearedBy)
	case a.ExpireTime != nil && AckExpired(*a.ExpireTime, now):
		return r.format.Sprintf(i18n.MsgReasonAckExpired, r.format.DateTime(*a.ExpireTime))
	case a.IsSticky:
		return r.recovered(o)
	case o == models.ObjectHost:
		return r.format.Sprintf(i18n.MsgHostRecovered)
	default:
		return r.format.Sprintf(i18n.MsgReasonServiceChange)
	}
}

// AckExpired reports whether an acknowledgement with the given expiry has
// run out at now. The expiry instant itself counts as expired.
func AckExpired(expire, now time.Time) bool {
	return !now.Before(expire)
}
