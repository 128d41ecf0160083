package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "status.pending", "Pending")
	message.SetString(lang, "status.in-progress", "In progress")
	message.SetString(lang, "status.done", "Done")

	message.SetString(lang, "priority.low", "Low")
	message.SetString(lang, "priority.normal", "Normal")
	message.SetString(lang, "priority.high", "High")

	message.SetString(lang, "filter.all", "All tasks")
	message.SetString(lang, "filter.assigned", "Assigned to me")
	message.SetString(lang, "filter.created", "Created by me")

	message.SetString(lang, KeyTitle, "Task Tracking System")
	message.SetString(lang, KeyListEmpty, "No tasks yet.")
	message.SetString(lang, KeyLoginFailed, "Login failed")
	message.SetString(lang, KeyLoginError, "An error occurred while logging in")
	message.SetString(lang, KeyLoggedOut, "Logged out")
	message.SetString(lang, KeyWelcome, "Logged in as %s (%s)")
	message.SetString(lang, KeyLabelAssigned, "Assigned: %s")
	message.SetString(lang, KeyLabelCreated, "Created by: %s")
	message.SetString(lang, KeyLabelUpdated, "Last updated by: %s")
	message.SetString(lang, KeyLabelPriority, "Priority: %s")
	message.SetString(lang, KeyUnknown, "Unknown")
	message.SetString(lang, KeyActionStatus, "status")
	message.SetString(lang, KeyActionDelete, "delete")
	message.SetString(lang, KeyNewTask, "New task: %s")
	message.SetString(lang, KeyNewTaskGeneric, "New task notification")
	message.SetString(lang, KeyRosterEmpty, "No eligible assignees.")
	message.SetString(lang, KeyWatching, "Listening for new tasks. Press Ctrl-C to stop.")
}
