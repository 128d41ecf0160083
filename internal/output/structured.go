package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"taskdesk/internal/access"
	"taskdesk/internal/service"
)

// Format selects how listings are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses an output format name. Empty input selects text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid format: %s (want text, json or yaml)", s)
}

// TaskRecord is a task as it appears in structured output.
type TaskRecord struct {
	Number       int `json:"number" yaml:"number"`
	service.Task `yaml:",inline"`
	Actions      []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Listing is the structured form of the list command's output.
type Listing struct {
	Filter service.Filter `json:"filter" yaml:"filter"`
	Tasks  []TaskRecord   `json:"tasks" yaml:"tasks"`
}

// NewRecord numbers task and attaches the actions offered by caps.
func NewRecord(num int, task service.Task, caps access.Capabilities) TaskRecord {
	return TaskRecord{Number: num, Task: task, Actions: Actions(caps)}
}

// Write renders v as JSON or YAML.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %s is not structured", format)
}
