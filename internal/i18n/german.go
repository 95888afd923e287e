package i18n

var germanMessages = map[string]string{
	MsgOnHost: "%s auf %s",

	MsgCommentAdded:           "Kommentar hinzugefügt",
	MsgCommentRemovedBy:       "Kommentar entfernt von %s",
	MsgCommentRemovedByAuthor: "Kommentar vom Autor entfernt",
	MsgCommentExpired:         "Kommentar abgelaufen",
	MsgCommentRemoved:         "Kommentar entfernt",

	MsgDowntimeStarted:           "Downtime gestartet",
	MsgDowntimeCancelledBy:       "Downtime abgebrochen von %s",
	MsgDowntimeCancelledByAuthor: "Downtime vom Autor abgebrochen",
	MsgDowntimeCancelled:         "Downtime abgebrochen",
	MsgDowntimeEnded:             "Downtime beendet",
	MsgDowntimeRemoved:           "Downtime entfernt",

	MsgFlappingStarted: "Flapping begonnen",
	MsgFlappingStopped: "Flapping beendet",

	MsgAckSet:             "Bestätigung gesetzt",
	MsgAckClearedBy:       "Bestätigung aufgehoben von %s",
	MsgAckClearedByAuthor: "Bestätigung vom Autor aufgehoben",
	MsgAckExpired:         "Bestätigung abgelaufen",
	MsgAckCleared:         "Bestätigung aufgehoben",

	MsgHostRecovered:    "Host erholt",
	MsgServiceRecovered: "Service erholt",
	MsgHardStateChanged: "Harter Statuswechsel",
	MsgSoftStateChanged: "Weicher Statuswechsel",

	MsgNotificationProblem:         "%s hat ein Problem",
	MsgNotificationRecovery:        "%s erholt",
	MsgNotificationAcknowledgement: "Problem bestätigt",
	MsgNotificationCustom:          "Benutzerdefinierte Benachrichtigung ausgelöst",

	MsgReasonClearedBy:     "Aufgehoben von %s",
	MsgReasonAckExpired:    "Die Bestätigung ist am %s abgelaufen",
	MsgReasonServiceChange: "Service hat seinen Status geändert",

	MsgFlappingStartNarrative: "Statuswechselrate von %.2f%% hat den Schwellwert (%.2f%%) überschritten",
	MsgFlappingEndNarrative:   "Statuswechselrate von %.2f%% hat den Schwellwert (%.2f%%) nach %s Flapping unterschritten",

	MsgHeadingComment:        "Kommentar",
	MsgHeadingPluginOutput:   "Plugin-Ausgabe",
	MsgHeadingEventInfo:      "Ereignisinformationen",
	MsgHeadingNotifiedUsers:  "Benachrichtigte Benutzer",
	MsgHeadingAckComment:     "Dieser Kommentar gehört zu einer Bestätigung",
	MsgHeadingCommentRemoved: "Dieser Kommentar wurde entfernt",
	MsgHeadingDowntimeCancel: "Diese Downtime wurde abgebrochen",

	MsgNone:               "Keine",
	MsgUsersReceived:      "Diese Benachrichtigung erhielten %d Benutzer",
	MsgUserReceived:       "Diese Benachrichtigung erhielt einen einzelnen Benutzer",
	MsgShowAllRecipients:  "Alle %d Empfänger anzeigen",
	MsgCheckAttemptOf:     "%d von %d",
	MsgYes:                "Ja",
	MsgNo:                 "Nein",
	MsgStateTypeHard:      "Hart",
	MsgStateTypeSoft:      "Weich",
	MsgKeySentOn:          "Gesendet am",
	MsgKeySentBy:          "Gesendet von",
	MsgKeyType:            "Typ",
	MsgKeyOccurredOn:      "Aufgetreten am",
	MsgKeyCheckSource:     "Check-Quelle",
	MsgKeyCheckAttempt:    "Check-Versuch",
	MsgKeyStateType:       "Statustyp",
	MsgKeyEnteredOn:       "Eingetragen am",
	MsgKeyAuthor:          "Autor",
	MsgKeyExpiresOn:       "Läuft ab am",
	MsgKeyRemovedOn:       "Entfernt am",
	MsgKeyRemovedBy:       "Entfernt von",
	MsgKeyExpiredOn:       "Abgelaufen am",
	MsgKeyStartedOn:       "Begonnen am",
	MsgKeyEndedOn:         "Beendet am",
	MsgKeyReason:          "Grund",
	MsgKeyRemovalReason:   "Grund der Entfernung",
	MsgKeySetOn:           "Gesetzt am",
	MsgKeyClearedOn:       "Aufgehoben am",
	MsgKeyClearedBy:       "Aufgehoben von",
	MsgKeyScheduledStart:  "Geplanter Beginn",
	MsgKeyScheduledEnd:    "Geplantes Ende",
	MsgKeyFlexibleFor:     "Flexible Dauer",
	MsgKeyCancelledOn:     "Abgebrochen am",
	MsgKeyCancelledBy:     "Abgebrochen von",
	MsgTypeRecovery:       "Erholung",
	MsgTypeAck:            "Bestätigung",
	MsgTypeCustom:         "Benutzerdefiniert",
	MsgTypeDowntimeStart:  "Downtime-Beginn",
	MsgTypeDowntimeEnd:    "Downtime-Ende",
	MsgTypeDowntimeRemove: "Downtime entfernt",
	MsgTypeFlappingStart:  "Flapping-Beginn",
	MsgTypeFlappingEnd:    "Flapping-Ende",

	MsgShowAllNotifications: "Alle %d Benachrichtigungen anzeigen",
	MsgNoNotifications:      "Keine Benachrichtigungen gefunden",

	MsgDurationDaysHours:      "%d T. %d Std.",
	MsgDurationHoursMinutes:   "%d Std. %d Min.",
	MsgDurationMinutesSeconds: "%d Min. %d Sek.",
	MsgDurationSeconds:        "%d Sek.",
}
