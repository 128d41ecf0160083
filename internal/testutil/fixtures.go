package testutil

import "taskdesk/internal/service"

// Fixture identities. Passwords are all "pw"; usernames are lowercase names.
var (
	Admin = service.Identity{ID: "u-admin", Name: "Ayse", Role: service.RoleAdmin}
	Ali   = service.Identity{ID: "u-ali", Name: "Ali", Role: service.RoleMember}
	Cem   = service.Identity{ID: "u-cem", Name: "Cem", Role: service.RoleMember}
)

// Ref returns a task reference to ident.
func Ref(ident service.Identity) service.IdentityRef {
	return service.IdentityRef{ID: ident.ID, Name: ident.Name}
}

// NewSeededService returns a FakeService with the fixture identities and
// three tasks created by Admin:
//
//	t1 "Write report"   assigned to Ali, high
//	t2 "Review budget"  assigned to Cem, normal
//	t3 "Plan offsite"   assigned to Ali, low, in progress
func NewSeededService() *FakeService {
	f := NewFakeService()
	f.AddUser(Admin, "ayse", "pw")
	f.AddUser(Ali, "ali", "pw")
	f.AddUser(Cem, "cem", "pw")

	f.AddTask(service.Task{
		ID: "t1", Title: "Write report", Description: "Monthly report",
		AssignedTo: Ref(Ali), CreatedBy: Ref(Admin), LastUpdatedBy: Ref(Admin),
		Priority: service.PriorityHigh, Status: service.StatusPending,
	})
	f.AddTask(service.Task{
		ID: "t2", Title: "Review budget", Description: "Q3 numbers",
		AssignedTo: Ref(Cem), CreatedBy: Ref(Admin), LastUpdatedBy: Ref(Admin),
		Priority: service.PriorityNormal, Status: service.StatusPending,
	})
	f.AddTask(service.Task{
		ID: "t3", Title: "Plan offsite", Description: "Venue and agenda",
		AssignedTo: Ref(Ali), CreatedBy: Ref(Admin), LastUpdatedBy: Ref(Ali),
		Priority: service.PriorityLow, Status: service.StatusInProgress,
	})
	f.nextID = 3
	return f
}
