package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds registered commands.
// Names are matched case-insensitively.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command // lowercased name and aliases map to command
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		cmds: make(map[string]Command),
	}
}

// Register adds a command to the registry.
// Returns an error if the name or any alias is already registered.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(c.Name())
	if name == "" {
		return fmt.Errorf("command has no name")
	}
	if _, exists := r.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}

	aliases := make([]string, 0, len(c.Aliases()))
	for _, alias := range c.Aliases() {
		alias = strings.ToLower(alias)
		if _, exists := r.cmds[alias]; exists || alias == name {
			return fmt.Errorf("command alias already registered: %s", alias)
		}
		aliases = append(aliases, alias)
	}

	r.cmds[name] = c
	for _, alias := range aliases {
		r.cmds[alias] = c
	}

	return nil
}

// Find looks up a command by name or alias. A prefix that matches exactly
// one command also finds it ("st" for status).
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.ToLower(name)
	if cmd, ok := r.cmds[name]; ok {
		return cmd, true
	}
	if name == "" {
		return nil, false
	}

	var found Command
	for key, cmd := range r.cmds {
		if !strings.HasPrefix(key, name) {
			continue
		}
		if found != nil && found.Name() != cmd.Name() {
			return nil, false
		}
		found = cmd
	}
	return found, found != nil
}

// All returns all unique commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Collect unique commands by primary name
	seen := make(map[string]Command)
	for _, cmd := range r.cmds {
		seen[cmd.Name()] = cmd
	}

	// Sort by name
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, len(names))
	for i, name := range names {
		result[i] = seen[name]
	}
	return result
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
