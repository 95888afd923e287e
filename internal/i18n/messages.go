package i18n

// Message keys are the English source strings. They are handed to the
// printer unchanged, so a language without a translation renders English.
const (
	MsgHost    = "Host"
	MsgService = "Service"
	MsgOnHost  = "%s on %s"

	MsgCommentAdded           = "Comment added"
	MsgCommentRemovedBy       = "Comment removed by %s"
	MsgCommentRemovedByAuthor = "Comment removed by author"
	MsgCommentExpired         = "Comment expired"
	MsgCommentRemoved         = "Comment removed"

	MsgDowntimeStarted           = "Downtime started"
	MsgDowntimeCancelledBy       = "Downtime cancelled by %s"
	MsgDowntimeCancelledByAuthor = "Downtime cancelled by author"
	MsgDowntimeCancelled         = "Downtime cancelled"
	MsgDowntimeEnded             = "Downtime ended"
	MsgDowntimeRemoved           = "Downtime removed"

	MsgFlappingStarted = "Flapping started"
	MsgFlappingStopped = "Flapping stopped"

	MsgAckSet             = "Acknowledgement set"
	MsgAckClearedBy       = "Acknowledgement cleared by %s"
	MsgAckClearedByAuthor = "Acknowledgement cleared by author"
	MsgAckExpired         = "Acknowledgement expired"
	MsgAckCleared         = "Acknowledgement cleared"

	MsgHostRecovered    = "Host recovered"
	MsgServiceRecovered = "Service recovered"
	MsgHardStateChanged = "Hard state changed"
	MsgSoftStateChanged = "Soft state changed"

	MsgNotificationProblem         = "%s ran into a problem"
	MsgNotificationRecovery        = "%s recovered"
	MsgNotificationAcknowledgement = "Problem acknowledged"
	MsgNotificationCustom          = "Custom Notification triggered"

	MsgReasonClearedBy     = "Cleared by %s"
	MsgReasonAckExpired    = "The acknowledgement expired on %s"
	MsgReasonServiceChange = "Service changed its state"

	MsgFlappingStartNarrative = "State change rate of %.2f%% exceeded the threshold (%.2f%%)"
	MsgFlappingEndNarrative   = "State change rate of %.2f%% undercut the threshold (%.2f%%) after flapping for %s"

	MsgHeadingComment        = "Comment"
	MsgHeadingPluginOutput   = "Plugin Output"
	MsgHeadingEventInfo      = "Event Info"
	MsgHeadingNotifiedUsers  = "Notified Users"
	MsgHeadingAckComment     = "This comment is tied to an acknowledgement"
	MsgHeadingCommentRemoved = "This comment has been removed"
	MsgHeadingDowntimeCancel = "This downtime has been cancelled"

	MsgNone               = "None"
	MsgUsersReceived      = "This notification received %d users"
	MsgUserReceived       = "This notification received a single user"
	MsgShowAllRecipients  = "Show all %d recipients"
	MsgCheckAttemptOf     = "%d of %d"
	MsgYes                = "Yes"
	MsgNo                 = "No"
	MsgStateTypeHard      = "Hard"
	MsgStateTypeSoft      = "Soft"
	MsgNotApplicable      = "-"
	MsgKeySentOn          = "Sent On"
	MsgKeySentBy          = "Sent by"
	MsgKeyType            = "Type"
	MsgKeyOccurredOn      = "Occurred On"
	MsgKeyCheckSource     = "Check Source"
	MsgKeyCheckAttempt    = "Check Attempt"
	MsgKeyStateType       = "State Type"
	MsgKeyEnteredOn       = "Entered On"
	MsgKeyAuthor          = "Author"
	MsgKeyExpiresOn       = "Expires On"
	MsgKeySticky          = "Sticky"
	MsgKeyPersistent      = "Persistent"
	MsgKeyRemovedOn       = "Removed On"
	MsgKeyRemovedBy       = "Removed by"
	MsgKeyExpiredOn       = "Expired On"
	MsgKeyStartedOn       = "Started on"
	MsgKeyEndedOn         = "Ended on"
	MsgKeyReason          = "Reason"
	MsgKeyRemovalReason   = "Removal Reason"
	MsgKeySetOn           = "Set on"
	MsgKeyClearedOn       = "Cleared on"
	MsgKeyClearedBy       = "Cleared by"
	MsgKeyScheduledStart  = "Scheduled Start"
	MsgKeyScheduledEnd    = "Scheduled End"
	MsgKeyFlexibleFor     = "Flexible Duration"
	MsgKeyCancelledOn     = "Cancelled On"
	MsgKeyCancelledBy     = "Cancelled by"
	MsgTypeProblem        = "Problem"
	MsgTypeRecovery       = "Recovery"
	MsgTypeAck            = "Acknowledgement"
	MsgTypeCustom         = "Custom"
	MsgTypeDowntimeStart  = "Downtime Start"
	MsgTypeDowntimeEnd    = "Downtime End"
	MsgTypeDowntimeRemove = "Downtime Removed"
	MsgTypeFlappingStart  = "Flapping Start"
	MsgTypeFlappingEnd    = "Flapping End"

	MsgShowAllNotifications = "Show all %d notifications"
	MsgNoNotifications      = "No notifications found"

	MsgDurationDaysHours      = "%dd %dh"
	MsgDurationHoursMinutes   = "%dh %dm"
	MsgDurationMinutesSeconds = "%dm %ds"
	MsgDurationSeconds        = "%ds"
)
