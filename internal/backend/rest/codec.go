package rest

import (
	"encoding/json"
	"fmt"
	"strings"

	"taskdesk/internal/service"
)

// The collaborator speaks its own vocabulary for status and priority.
// Outgoing values use it; incoming values accept it or the canonical names.
var (
	statusToWire = map[service.Status]string{
		service.StatusPending:    "bekliyor",
		service.StatusInProgress: "calısılıyor",
		service.StatusDone:       "tamamlandı",
	}
	priorityToWire = map[service.Priority]string{
		service.PriorityLow:    "dusuk",
		service.PriorityNormal: "normal",
		service.PriorityHigh:   "yuksek",
	}
	statusFromWire   = invert(statusToWire)
	priorityFromWire = invert(priorityToWire)
)

func invert[K ~string](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func encodeStatus(s service.Status) string {
	if w, ok := statusToWire[s]; ok {
		return w
	}
	return string(s)
}

func decodeStatus(w string) service.Status {
	w = strings.TrimSpace(w)
	if s, ok := statusFromWire[w]; ok {
		return s
	}
	// Older collaborators send the dotless spelling.
	if w == "calisiliyor" {
		return service.StatusInProgress
	}
	if s, err := service.ParseStatus(w); err == nil {
		return s
	}
	// Unknown values render as pending, matching how the collaborator's own
	// client displays them.
	return service.StatusPending
}

func encodePriority(p service.Priority) string {
	if w, ok := priorityToWire[p]; ok {
		return w
	}
	return string(p)
}

func decodePriority(w string) service.Priority {
	w = strings.TrimSpace(w)
	if p, ok := priorityFromWire[w]; ok {
		return p
	}
	if p, err := service.ParsePriority(w); err == nil {
		return p
	}
	return service.PriorityLow
}

// wireTask is a task as the collaborator sends it.
type wireTask struct {
	OID           string              `json:"_id"`
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	AssignedTo    service.IdentityRef `json:"assignedTo"`
	CreatedBy     service.IdentityRef `json:"createdBy"`
	LastUpdatedBy service.IdentityRef `json:"lastUpdatedBy"`
	Priority      string              `json:"priority"`
	Status        string              `json:"status"`
}

func (w wireTask) toTask() service.Task {
	id := w.OID
	if id == "" {
		id = w.ID
	}
	return service.Task{
		ID:            id,
		Title:         w.Title,
		Description:   w.Description,
		AssignedTo:    w.AssignedTo,
		CreatedBy:     w.CreatedBy,
		LastUpdatedBy: w.LastUpdatedBy,
		Priority:      decodePriority(w.Priority),
		Status:        decodeStatus(w.Status),
	}
}

// DecodeTask decodes a single task in the collaborator's wire vocabulary,
// such as the payload of a push event.
func DecodeTask(data []byte) (service.Task, error) {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return service.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return w.toTask(), nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string           `json:"token"`
	User  service.Identity `json:"user"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	Priority    string `json:"priority"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// errorBody is the failure shape. Some collaborator routes use "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
