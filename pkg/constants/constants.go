package constants

const (
	APIPrefix = "v1"

	// ReminderOrigin marks audit rows produced by the reminder cron rather
	// than a user-triggered retry.
	ReminderOrigin = "reminder-cron"
)
