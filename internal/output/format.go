// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/message"

	"taskdesk/internal/access"
	"taskdesk/internal/i18n"
	"taskdesk/internal/notify"
	"taskdesk/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	detailIndent = "        "
)

// FormatTask formats one task of a listing.
// Format:
//
//	{N:>4}  {TITLE}
//	        {DESCRIPTION}
//	        [{STATUS}] {PRIORITY LABEL}
//	        {ASSIGNED} | {CREATED BY} | {LAST UPDATED BY}
//	        > {ACTIONS}
//
// The description line is omitted when empty; the actions line is omitted
// when no action is offered.
func FormatTask(w io.Writer, p *message.Printer, num int, task service.Task, caps access.Capabilities) {
	fmt.Fprintf(w, "%4d  %s\n", num, normalizeTitle(task.Title))
	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintf(w, "%s%s\n", detailIndent, desc)
	}
	fmt.Fprintf(w, "%s[%s] %s\n", detailIndent,
		i18n.Status(p, task.Status),
		p.Sprintf(i18n.KeyLabelPriority, i18n.Priority(p, task.Priority)))
	fmt.Fprintf(w, "%s%s | %s | %s\n", detailIndent,
		p.Sprintf(i18n.KeyLabelAssigned, i18n.Name(p, task.AssignedTo)),
		p.Sprintf(i18n.KeyLabelCreated, i18n.Name(p, task.CreatedBy)),
		p.Sprintf(i18n.KeyLabelUpdated, i18n.Name(p, task.LastUpdatedBy)))
	if actions := localizedActions(p, caps); len(actions) > 0 {
		fmt.Fprintf(w, "%s> %s\n", detailIndent, strings.Join(actions, ", "))
	}
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, normalizeListTitle(title))
	fmt.Fprintln(w, ListSeparator)
}

// FormatEmpty prints the empty-listing notice.
func FormatEmpty(w io.Writer, p *message.Printer) {
	fmt.Fprintln(w, p.Sprintf(i18n.KeyListEmpty))
}

// FormatIdentity formats an identity for the users and whoami commands.
// Format: "{NAME:<20} {ROLE:<6}  {ID}\n"
func FormatIdentity(w io.Writer, ident service.Identity) {
	role := ident.Role
	if role == "" {
		role = service.RoleMember
	}
	fmt.Fprintf(w, "%-20s %-6s  %s\n", normalizeListTitle(ident.Name), role, ident.ID)
}

// Actions returns the canonical action names offered by caps.
func Actions(caps access.Capabilities) []string {
	var out []string
	if caps.CanEdit {
		out = append(out, "status")
	}
	if caps.CanDelete {
		out = append(out, "delete")
	}
	return out
}

func localizedActions(p *message.Printer, caps access.Capabilities) []string {
	var out []string
	if caps.CanEdit {
		out = append(out, p.Sprintf(i18n.KeyActionStatus))
	}
	if caps.CanDelete {
		out = append(out, p.Sprintf(i18n.KeyActionDelete))
	}
	return out
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

// normalizeText flattens line breaks and trims surrounding space.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// FormatEvent formats a push notification line.
func FormatEvent(w io.Writer, p *message.Printer, ev notify.Event) {
	if ev.Task != nil && strings.TrimSpace(ev.Task.Title) != "" {
		fmt.Fprintln(w, p.Sprintf(i18n.KeyNewTask, normalizeTitle(ev.Task.Title)))
		return
	}
	fmt.Fprintln(w, p.Sprintf(i18n.KeyNewTaskGeneric))
}
