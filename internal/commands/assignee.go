package commands

import (
	"errors"
	"fmt"
	"strings"

	"taskdesk/internal/service"
)

// ErrAssigneeRequired indicates no assignee was given.
var ErrAssigneeRequired = errors.New("assignee required (--assignee <name|id>)")

// ResolveAssignee finds ref in roster, by exact id first and then by name
// (case-insensitive, trimmed).
func ResolveAssignee(roster []service.Identity, ref string) (service.Identity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.Identity{}, ErrAssigneeRequired
	}

	for _, ident := range roster {
		if ident.ID == ref {
			return ident, nil
		}
	}

	var matches []service.Identity
	for _, ident := range roster {
		if strings.EqualFold(strings.TrimSpace(ident.Name), ref) {
			matches = append(matches, ident)
		}
	}

	switch len(matches) {
	case 0:
		return service.Identity{}, fmt.Errorf("assignee not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return service.Identity{}, fmt.Errorf("ambiguous assignee name: %s (use the id)", ref)
	}
}
