// Package access derives advisory capabilities from an identity.
//
// Nothing here is enforcement: the collaborator makes the actual authorization
// decision. These checks decide which actions the client offers, so that a
// member is not shown controls the collaborator would refuse anyway.
package access

import "taskdesk/internal/service"

// Capabilities lists the actions offered to an identity for one task.
type Capabilities struct {
	CanCreate bool // create new tasks
	CanDelete bool // delete this task
	CanEdit   bool // change this task's status
}

// Check returns the capabilities of who for task.
// Create and delete follow the admin role; status edits follow assignment.
func Check(who service.Identity, task service.Task) Capabilities {
	admin := who.Role.IsAdmin()
	return Capabilities{
		CanCreate: admin,
		CanDelete: admin,
		CanEdit:   isAssignee(who, task),
	}
}

// CanCreate reports whether who is offered task creation.
func CanCreate(who service.Identity) bool {
	return who.Role.IsAdmin()
}

func isAssignee(who service.Identity, task service.Task) bool {
	return who.ID != "" && task.AssignedTo.ID == who.ID
}

// EligibleAssignees filters roster down to the identities caller may assign to.
// Admin callers get the roster unchanged. Everyone else loses every admin
// identity and themselves.
func EligibleAssignees(caller service.Identity, roster []service.Identity) []service.Identity {
	if caller.Role.IsAdmin() {
		out := make([]service.Identity, len(roster))
		copy(out, roster)
		return out
	}

	out := make([]service.Identity, 0, len(roster))
	for _, ident := range roster {
		if ident.Role.IsAdmin() {
			continue
		}
		if ident.ID == caller.ID {
			continue
		}
		out = append(out, ident)
	}
	return out
}
