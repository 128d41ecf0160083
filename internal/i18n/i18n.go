// Package i18n holds the display catalogs and label helpers.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"taskdesk/internal/service"
)

// Message keys.
const (
	KeyListEmpty      = "list.empty"
	KeyLoginFailed    = "login.failed"
	KeyLoginError     = "login.error"
	KeyLoggedOut      = "logout.done"
	KeyWelcome        = "welcome"
	KeyTitle          = "title"
	KeyLabelAssigned  = "label.assigned"
	KeyLabelCreated   = "label.created"
	KeyLabelUpdated   = "label.updated"
	KeyLabelPriority  = "label.priority"
	KeyUnknown        = "label.unknown"
	KeyActionStatus   = "action.status"
	KeyActionDelete   = "action.delete"
	KeyNewTask        = "notify.new_task"
	KeyNewTaskGeneric = "notify.new_task_generic"
	KeyRosterEmpty    = "roster.empty"
	KeyWatching       = "watch.listening"
)

// Supported lists the catalog languages. The first is the fallback.
var Supported = []language.Tag{language.English, language.Turkish}

var matcher = language.NewMatcher(Supported)

// Tag resolves a language name such as "en", "tr" or "tr-TR" to a supported tag.
func Tag(lang string) language.Tag {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Supported[0]
	}
	t, err := language.Parse(lang)
	if err != nil {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Printer returns a printer for lang.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(Tag(lang))
}

// Status returns the display label for s.
func Status(p *message.Printer, s service.Status) string {
	return p.Sprintf("status." + string(s))
}

// Priority returns the display label for pr.
func Priority(p *message.Printer, pr service.Priority) string {
	return p.Sprintf("priority." + string(pr))
}

// Filter returns the display label for f.
func Filter(p *message.Printer, f service.Filter) string {
	return p.Sprintf("filter." + string(f))
}

// Name returns the referenced identity's name, or the localized "unknown".
func Name(p *message.Printer, ref service.IdentityRef) string {
	if strings.TrimSpace(ref.Name) == "" {
		return p.Sprintf(KeyUnknown)
	}
	return ref.Name
}
