package core

import (
	"fmt"
	"strings"
	"sync"
)

// ActionRegistry is the process-wide catalog of invocable actions. It is
// populated once at startup via explicit Register calls and treated as
// read-only afterwards; there is no registration path reachable from request
// handling.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]ActionDescriptor
	order   []string
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]ActionDescriptor)}
}

func (r *ActionRegistry) Register(descriptor ActionDescriptor) error {
	if r == nil {
		return fmt.Errorf("core: action registry is nil")
	}
	name := strings.TrimSpace(descriptor.Name)
	if name == "" {
		return fmt.Errorf("core: action name is required")
	}
	if descriptor.Handler == nil {
		return fmt.Errorf("core: action handler is required: %s", name)
	}
	descriptor.Name = name
	descriptor.Category = strings.TrimSpace(descriptor.Category)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("core: action already registered: %s", name)
	}
	r.actions[name] = descriptor
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on registration failure. It exists for startup wiring
// where a duplicate action name is a programming error.
func (r *ActionRegistry) MustRegister(descriptor ActionDescriptor) {
	if err := r.Register(descriptor); err != nil {
		panic(err)
	}
}

func (r *ActionRegistry) Get(name string) (ActionDescriptor, bool) {
	name = strings.TrimSpace(name)
	if r == nil || name == "" {
		return ActionDescriptor{}, false
	}
	r.mu.RLock()
	descriptor, ok := r.actions[name]
	r.mu.RUnlock()
	return descriptor, ok
}

// List returns descriptors in registration order for stable enumeration,
// optionally filtered by category.
func (r *ActionRegistry) List(category ...string) []ActionDescriptor {
	if r == nil {
		return nil
	}
	filter := ""
	if len(category) > 0 {
		filter = strings.TrimSpace(category[0])
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptors := make([]ActionDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptor := r.actions[name]
		if filter != "" && descriptor.Category != filter {
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors
}
