package history

import (
	"context"
	"strings"
	"time"

	"historyview/internal/i18n"
	"historyview/internal/models"
)

// RecipientPreviewLimit caps the recipients listed inline for a notification.
const RecipientPreviewLimit = 5

// RecipientFetcher loads the users a notification was sent to, in a stable
// order, at most limit of them.
type RecipientFetcher interface {
	NotifiedUsers(ctx context.Context, id models.EventID, limit int) (models.RecipientPage, error)
}

// Output is a block of free text, either plugin output or a markdown comment.
type Output struct {
	Text         string `json:"text"`
	Markdown     bool   `json:"markdown,omitempty"`
	CheckCommand string `json:"check_command,omitempty"`
}

// KeyValue is one labelled fact of a detail section.
type KeyValue struct {
	Key    string       `json:"key"`
	Value  string       `json:"value"`
	Icon   Icon         `json:"icon,omitempty"`
	States *StateChange `json:"states,omitempty"`
}

// ShowMore points to the full recipient list. Total is the authoritative
// number of notified users.
type ShowMore struct {
	Label string `json:"label"`
	Total int    `json:"total"`
}

// Recipients is the capped recipient preview of a notification.
type Recipients struct {
	Users    []models.User `json:"users"`
	ShowMore *ShowMore     `json:"show_more,omitempty"`
}

// Section is one headed block of the event detail view. Only the parts that
// apply are set.
type Section struct {
	Heading    string      `json:"heading"`
	Output     *Output     `json:"output,omitempty"`
	Facts      []KeyValue  `json:"facts,omitempty"`
	Recipients *Recipients `json:"recipients,omitempty"`
	EmptyState string      `json:"empty_state,omitempty"`
	Summary    string      `json:"summary,omitempty"`
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithHiddenRecipients replaces the recipient preview by a plain count, for
// viewers who may not browse users.
func WithHiddenRecipients() AssemblerOption {
	return func(a *Assembler) {
		a.hideRecipients = true
	}
}

// Assembler builds the detail view of a single history record.
type Assembler struct {
	resolver       *Resolver
	format         i18n.Formatter
	recipients     RecipientFetcher
	hideRecipients bool
}

// NewAssembler creates an assembler sharing the resolver's formatter.
func NewAssembler(resolver *Resolver, recipients RecipientFetcher, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		resolver:   resolver,
		format:     resolver.format,
		recipients: recipients,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns the ordered detail sections of rec. Records of unknown
// type or without a payload yield no sections and no error. Recipient fetch
// errors are returned as is.
func (a *Assembler) Assemble(ctx context.Context, rec *models.EventRecord, now time.Time) ([]Section, error) {
	if rec == nil || !rec.EventType.IsValid() || isEmptyPayload(rec.Payload) {
		return []Section{}, nil
	}

	facts, err := a.resolver.Resolve(rec, now)
	if err != nil {
		return nil, err
	}

	switch rec.EventType {
	case models.EventNotification:
		return a.notificationSections(ctx, rec)
	case models.EventStateChange:
		return a.stateChangeSections(rec, facts)
	case models.EventCommentAdd, models.EventCommentRemove:
		return a.commentSections(rec)
	case models.EventDowntimeStart, models.EventDowntimeEnd:
		return a.downtimeSections(rec)
	case models.EventFlappingStart, models.EventFlappingEnd:
		return a.flappingSections(rec, facts)
	case models.EventAckSet, models.EventAckClear:
		return a.acknowledgementSections(rec, facts, now)
	}
	return []Section{}, nil
}

func isEmptyPayload(p models.Payload) bool {
	if p == nil {
		return true
	}
	switch v := p.(type) {
	case *models.NotificationHistory:
		return v == nil
	case *models.StateHistory:
		return v == nil
	case *models.CommentHistory:
		return v == nil
	case *models.DowntimeHistory:
		return v == nil
	case *models.FlappingHistory:
		return v == nil
	case *models.AcknowledgementHistory:
		return v == nil
	}
	return false
}

func (a *Assembler) text(key string, args ...any) string {
	return a.format.Sprintf(key, args...)
}

func (a *Assembler) date(t time.Time) string {
	return a.format.DateTime(t)
}

func (a *Assembler) optionalDate(t *time.Time) string {
	if t == nil {
		return a.text(i18n.MsgNotApplicable)
	}
	return a.date(*t)
}

func (a *Assembler) yesNo(b bool) string {
	if b {
		return a.text(i18n.MsgYes)
	}
	return a.text(i18n.MsgNo)
}

func (a *Assembler) objectFact(rec *models.EventRecord, states *StateChange) KeyValue {
	return KeyValue{
		Key:    a.resolver.objectLabel(rec.ObjectType),
		Value:  a.resolver.subject(rec),
		States: states,
	}
}

func (a *Assembler) userFact(key, user string) KeyValue {
	return KeyValue{Key: a.text(key), Value: user, Icon: IconUser}
}

var notificationTypeKeys = map[models.NotificationType]string{
	models.NotificationProblem:         i18n.MsgTypeProblem,
	models.NotificationRecovery:        i18n.MsgTypeRecovery,
	models.NotificationAcknowledgement: i18n.MsgTypeAck,
	models.NotificationCustom:          i18n.MsgTypeCustom,
	models.NotificationDowntimeStart:   i18n.MsgTypeDowntimeStart,
	models.NotificationDowntimeEnd:     i18n.MsgTypeDowntimeEnd,
	models.NotificationDowntimeRemoved: i18n.MsgTypeDowntimeRemove,
	models.NotificationFlappingStart:   i18n.MsgTypeFlappingStart,
	models.NotificationFlappingEnd:     i18n.MsgTypeFlappingEnd,
}

func (a *Assembler) notificationSections(ctx context.Context, rec *models.EventRecord) ([]Section, error) {
	n, err := rec.Notification()
	if err != nil {
		return nil, err
	}

	heading := i18n.MsgHeadingPluginOutput
	if n.Author != "" {
		heading = i18n.MsgHeadingComment
	}
	sections := []Section{{
		Heading: a.text(heading),
		Output:  &Output{Text: n.Text, CheckCommand: rec.CheckCommand()},
	}}

	// the resolver already rejected unknown notification types
	states, err := a.resolver.stateVisual(rec, n.PreviousHardState, n.State)
	if err != nil {
		return nil, err
	}
	info := []KeyValue{{Key: a.text(i18n.MsgKeySentOn), Value: a.date(n.SendTime)}}
	if n.Author != "" {
		info = append(info, a.userFact(i18n.MsgKeySentBy, n.Author))
	}
	info = append(info,
		KeyValue{Key: a.text(i18n.MsgKeyType), Value: a.text(notificationTypeKeys[n.Type])},
		a.objectFact(rec, states),
	)
	sections = append(sections, Section{Heading: a.text(i18n.MsgHeadingEventInfo), Facts: info})

	users, err := a.notifiedUsers(ctx, rec, n)
	if err != nil {
		return nil, err
	}
	return append(sections, users), nil
}

func (a *Assembler) notifiedUsers(ctx context.Context, rec *models.EventRecord, n *models.NotificationHistory) (Section, error) {
	section := Section{Heading: a.text(i18n.MsgHeadingNotifiedUsers)}
	switch {
	case n.UsersNotified <= 0:
		section.EmptyState = a.text(i18n.MsgNone)
		return section, nil
	case a.hideRecipients || a.recipients == nil:
		if n.UsersNotified == 1 {
			section.Summary = a.text(i18n.MsgUserReceived)
		} else {
			section.Summary = a.text(i18n.MsgUsersReceived, n.UsersNotified)
		}
		return section, nil
	}

	page, err := a.recipients.NotifiedUsers(ctx, rec.ID, RecipientPreviewLimit)
	if err != nil {
		return Section{}, err
	}
	users := page.Users
	if len(users) > RecipientPreviewLimit {
		users = users[:RecipientPreviewLimit]
	}
	section.Recipients = &Recipients{Users: users}
	if page.HasMore {
		section.Recipients.ShowMore = &ShowMore{
			Label: a.text(i18n.MsgShowAllRecipients, n.UsersNotified),
			Total: n.UsersNotified,
		}
	}
	return section, nil
}

func (a *Assembler) stateChangeSections(rec *models.EventRecord, facts Facts) ([]Section, error) {
	s, err := rec.StateChange()
	if err != nil {
		return nil, err
	}

	output := s.Output
	if s.LongOutput != "" {
		output = strings.TrimRight(output+"\n"+s.LongOutput, "\n")
	}

	occurred := s.EventTime
	if occurred.IsZero() {
		occurred = rec.EventTime
	}
	info := []KeyValue{
		{Key: a.text(i18n.MsgKeyOccurredOn), Value: a.date(occurred)},
		{Key: a.text(i18n.MsgKeyCheckSource), Value: s.CheckSource},
	}
	stateType := a.text(i18n.MsgStateTypeHard)
	if s.StateType == models.StateSoft {
		info = append(info, KeyValue{
			Key:   a.text(i18n.MsgKeyCheckAttempt),
			Value: a.text(i18n.MsgCheckAttemptOf, s.Attempt, s.MaxCheckAttempts),
		})
		stateType = a.text(i18n.MsgStateTypeSoft)
	}
	// the object row shows the state pair without the attempt indicator
	var states *StateChange
	if facts.Visual != nil {
		states = &StateChange{Previous: facts.Visual.Previous, Current: facts.Visual.Current}
	}
	info = append(info,
		KeyValue{Key: a.text(i18n.MsgKeyStateType), Value: stateType},
		a.objectFact(rec, states),
	)

	return []Section{
		{
			Heading: a.text(i18n.MsgHeadingPluginOutput),
			Output:  &Output{Text: output, CheckCommand: rec.CheckCommand()},
		},
		{Heading: a.text(i18n.MsgHeadingEventInfo), Facts: info},
	}, nil
}

func (a *Assembler) commentSections(rec *models.EventRecord) ([]Section, error) {
	c, err := rec.Comment()
	if err != nil {
		return nil, err
	}

	sections := []Section{
		{
			Heading: a.text(i18n.MsgHeadingComment),
			Output:  &Output{Text: c.Comment, Markdown: true},
		},
		{
			Heading: a.text(i18n.MsgHeadingEventInfo),
			Facts: []KeyValue{
				a.objectFact(rec, nil),
				{Key: a.text(i18n.MsgKeyEnteredOn), Value: a.date(c.EntryTime)},
				a.userFact(i18n.MsgKeyAuthor, c.Author),
				{Key: a.text(i18n.MsgKeyExpiresOn), Value: a.optionalDate(c.ExpireTime)},
			},
		},
	}

	if c.EntryType == models.CommentEntryAck {
		sections = append(sections, Section{
			Heading: a.text(i18n.MsgHeadingAckComment),
			Facts: []KeyValue{
				{Key: a.text(i18n.MsgKeySticky), Value: a.yesNo(c.IsSticky)},
				{Key: a.text(i18n.MsgKeyPersistent), Value: a.yesNo(c.IsPersistent)},
			},
		})
	}

	if c.HasBeenRemoved {
		removal := Section{Heading: a.text(i18n.MsgHeadingCommentRemoved)}
		if c.RemovedBy != "" {
			removal.Facts = []KeyValue{
				{Key: a.text(i18n.MsgKeyRemovedOn), Value: a.optionalDate(c.RemoveTime)},
				a.userFact(i18n.MsgKeyRemovedBy, c.RemovedBy),
			}
		} else {
			removal.Facts = []KeyValue{
				{Key: a.text(i18n.MsgKeyExpiredOn), Value: a.optionalDate(c.RemoveTime)},
			}
		}
		sections = append(sections, removal)
	}
	return sections, nil
}

func (a *Assembler) downtimeSections(rec *models.EventRecord) ([]Section, error) {
	d, err := rec.Downtime()
	if err != nil {
		return nil, err
	}

	info := []KeyValue{
		a.objectFact(rec, nil),
		{Key: a.text(i18n.MsgKeyEnteredOn), Value: a.date(d.EntryTime)},
		a.userFact(i18n.MsgKeyAuthor, d.Author),
		{Key: a.text(i18n.MsgKeyScheduledStart), Value: a.date(d.ScheduledStartTime)},
		{Key: a.text(i18n.MsgKeyScheduledEnd), Value: a.date(d.ScheduledEndTime)},
	}
	if d.IsFlexible {
		info = append(info, KeyValue{Key: a.text(i18n.MsgKeyFlexibleFor), Value: a.format.Duration(d.FlexibleDuration)})
	}
	info = append(info, KeyValue{Key: a.text(i18n.MsgKeyStartedOn), Value: a.optionalDate(d.StartTime)})
	if rec.EventType == models.EventDowntimeEnd {
		info = append(info, KeyValue{Key: a.text(i18n.MsgKeyEndedOn), Value: a.optionalDate(d.EndTime)})
	}

	sections := []Section{
		{
			Heading: a.text(i18n.MsgHeadingComment),
			Output:  &Output{Text: d.Comment, Markdown: true},
		},
		{Heading: a.text(i18n.MsgHeadingEventInfo), Facts: info},
	}

	if d.HasBeenCancelled {
		cancel := Section{
			Heading: a.text(i18n.MsgHeadingDowntimeCancel),
			Facts:   []KeyValue{{Key: a.text(i18n.MsgKeyCancelledOn), Value: a.optionalDate(d.CancelTime)}},
		}
		if d.CancelledBy != "" {
			cancel.Facts = append(cancel.Facts, a.userFact(i18n.MsgKeyCancelledBy, d.CancelledBy))
		}
		sections = append(sections, cancel)
	}
	return sections, nil
}

func (a *Assembler) flappingSections(rec *models.EventRecord, facts Facts) ([]Section, error) {
	f, err := rec.Flapping()
	if err != nil {
		return nil, err
	}

	info := []KeyValue{
		a.objectFact(rec, nil),
		{Key: a.text(i18n.MsgKeyStartedOn), Value: a.date(f.StartTime)},
	}
	if rec.EventType == models.EventFlappingEnd {
		info = append(info, KeyValue{Key: a.text(i18n.MsgKeyEndedOn), Value: a.optionalDate(f.EndTime)})
	}
	if facts.Caption != nil {
		info = append(info, KeyValue{Key: a.text(i18n.MsgKeyReason), Value: facts.Caption.Text})
	}
	return []Section{{Heading: a.text(i18n.MsgHeadingEventInfo), Facts: info}}, nil
}

func (a *Assembler) acknowledgementSections(rec *models.EventRecord, facts Facts, now time.Time) ([]Section, error) {
	ack, err := rec.Acknowledgement()
	if err != nil {
		return nil, err
	}

	var sections []Section
	if ack.Comment != "" {
		sections = append(sections, Section{
			Heading: a.text(i18n.MsgHeadingComment),
			Output:  &Output{Text: ack.Comment, Markdown: true},
		})
	}

	info := []KeyValue{
		{Key: a.text(i18n.MsgKeySetOn), Value: a.date(ack.SetTime)},
		a.userFact(i18n.MsgKeyAuthor, ack.Author),
		a.objectFact(rec, nil),
	}
	if rec.EventType == models.EventAckSet {
		info = append(info,
			KeyValue{Key: a.text(i18n.MsgKeyExpiresOn), Value: a.optionalDate(ack.ExpireTime)},
			KeyValue{Key: a.text(i18n.MsgKeySticky), Value: a.yesNo(ack.IsSticky)},
			KeyValue{Key: a.text(i18n.MsgKeyPersistent), Value: a.yesNo(ack.IsPersistent)},
		)
	} else {
		cleared := rec.EventTime
		if ack.ClearTime != nil {
			cleared = *ack.ClearTime
		}
		info = append(info, KeyValue{Key: a.text(i18n.MsgKeyClearedOn), Value: a.date(cleared)})
		if ack.ClearedBy != "" {
			info = append(info, a.userFact(i18n.MsgKeyClearedBy, ack.ClearedBy))
		} else {
			key := i18n.MsgKeyReason
			if ack.ExpireTime != nil && AckExpired(*ack.ExpireTime, now) {
				key = i18n.MsgKeyRemovalReason
			}
			info = append(info, KeyValue{Key: a.text(key), Value: facts.Reason})
		}
	}
	return append(sections, Section{Heading: a.text(i18n.MsgHeadingEventInfo), Facts: info}), nil
}
