// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role is the privilege level of an identity.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsAdmin reports whether r grants administrative capabilities.
// Any role other than admin is treated as member.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Identity is a user known to the collaborator.
type Identity struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role Role   `json:"role" yaml:"role"`
}

// UnmarshalJSON accepts both "id" (login response) and "_id" (listings).
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   string `json:"id"`
		OID  string `json:"_id"`
		Name string `json:"name"`
		Role Role   `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.ID = raw.ID
	if i.ID == "" {
		i.ID = raw.OID
	}
	i.Name = raw.Name
	i.Role = raw.Role
	return nil
}

// IdentityRef is a reference from a task to an identity.
// The collaborator sends either a populated object, a bare id, or null.
type IdentityRef struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// IsZero reports whether the reference is empty.
func (r IdentityRef) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

// UnmarshalJSON decodes a populated object, a bare id string, or null.
func (r *IdentityRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*r = IdentityRef{}
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = IdentityRef{ID: id}
		return nil
	}
	var ident Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return err
	}
	*r = IdentityRef{ID: ident.ID, Name: ident.Name}
	return nil
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority parses a priority name (case-insensitive).
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "normal", "medium":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority: %s", s)
}

// Status is the progress state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus parses a status name (case-insensitive).
// "in-progress", "in_progress", "inprogress" and "progress" are equivalent.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "todo":
		return StatusPending, nil
	case "in-progress", "in_progress", "inprogress", "progress":
		return StatusInProgress, nil
	case "done", "completed", "complete":
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// Filter is the server-evaluated visibility scope for task listings.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterAssigned Filter = "assigned"
	FilterCreated  Filter = "created"
)

// Valid reports whether f is a known filter tag.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterAssigned, FilterCreated:
		return true
	}
	return false
}

// ParseFilter parses a filter tag.
// Empty input selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "assigned", "assigned-to-me", "mine":
		return FilterAssigned, nil
	case "created", "created-by-me":
		return FilterCreated, nil
	}
	return "", fmt.Errorf("invalid filter: %s", s)
}

// Task represents a single task item.
type Task struct {
	ID            string      `json:"id" yaml:"id"`
	Title         string      `json:"title" yaml:"title"`
	Description   string      `json:"description" yaml:"description"`
	AssignedTo    IdentityRef `json:"assignedTo" yaml:"assignedTo"`
	CreatedBy     IdentityRef `json:"createdBy" yaml:"createdBy"`
	LastUpdatedBy IdentityRef `json:"lastUpdatedBy" yaml:"lastUpdatedBy"`
	Priority      Priority    `json:"priority" yaml:"priority"`
	Status        Status      `json:"status" yaml:"status"`
}

// NewTask holds the fields an admin supplies when creating a task.
type NewTask struct {
	Title       string
	Description string
	AssignedTo  string // identity ID
	Priority    Priority
}

// Validate checks the required fields and defaults the priority to normal.
func (n *NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return errors.New("title required")
	}
	if strings.TrimSpace(n.Description) == "" {
		return errors.New("description required")
	}
	if strings.TrimSpace(n.AssignedTo) == "" {
		return errors.New("assignee required")
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("invalid priority: %s", n.Priority)
	}
	return nil
}

// Session is an authenticated credential plus the identity it belongs to.
type Session struct {
	Token string
	User  Identity
}

// Valid reports whether the session carries both a token and an identity.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}
