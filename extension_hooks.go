package messaging

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/webhooks"
)

// ActionPack groups action descriptors contributed by a downstream module,
// applied to the registry while a runtime is assembled.
type ActionPack struct {
	Name    string
	Actions []core.ActionDescriptor
}

// WebhookHandlerPack groups field handlers keyed by webhook field name.
type WebhookHandlerPack struct {
	Name     string
	Handlers map[string]webhooks.FieldHandler
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

type ExtensionHooks struct {
	mu sync.RWMutex

	actionPacks  map[string]ActionPack
	webhookPacks map[string]WebhookHandlerPack
	bundles      map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		actionPacks:  map[string]ActionPack{},
		webhookPacks: map[string]WebhookHandlerPack{},
		bundles:      map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterActionPack(pack ActionPack) error {
	if h == nil {
		return fmt.Errorf("messaging: extension hooks are required")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("messaging: action pack name is required")
	}
	if len(pack.Actions) == 0 {
		return fmt.Errorf("messaging: action pack %q has no actions", name)
	}
	for _, descriptor := range pack.Actions {
		if strings.TrimSpace(descriptor.Name) == "" {
			return fmt.Errorf("messaging: action pack %q has an unnamed action", name)
		}
		if descriptor.Handler == nil {
			return fmt.Errorf("messaging: action %q in pack %q has no handler", descriptor.Name, name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.actionPacks[name]; exists {
		return fmt.Errorf("messaging: action pack %q is already registered", name)
	}
	pack.Name = name
	h.actionPacks[name] = pack
	return nil
}

func (h *ExtensionHooks) RegisterWebhookPack(pack WebhookHandlerPack) error {
	if h == nil {
		return fmt.Errorf("messaging: extension hooks are required")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("messaging: webhook pack name is required")
	}
	if len(pack.Handlers) == 0 {
		return fmt.Errorf("messaging: webhook pack %q has no handlers", name)
	}
	for field, handler := range pack.Handlers {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("messaging: webhook pack %q has an unnamed field", name)
		}
		if handler == nil {
			return fmt.Errorf("messaging: field %q in pack %q has no handler", field, name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.webhookPacks[name]; exists {
		return fmt.Errorf("messaging: webhook pack %q is already registered", name)
	}
	pack.Name = name
	h.webhookPacks[name] = pack
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("messaging: extension hooks are required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("messaging: bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("messaging: bundle factory is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("messaging: bundle %q is already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyActionPacks registers every pack's descriptors in deterministic pack
// order. A duplicate action name aborts the apply.
func (h *ExtensionHooks) ApplyActionPacks(registry core.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("messaging: action registry is required")
	}
	for _, pack := range h.ActionPacks() {
		for _, descriptor := range pack.Actions {
			if err := registry.Register(descriptor); err != nil {
				return fmt.Errorf("messaging: apply action pack %q: %w", pack.Name, err)
			}
		}
	}
	return nil
}

// ApplyWebhookPacks registers every pack's field handlers in deterministic
// pack order. Fields sort within a pack so replays of the same hook set fail
// or succeed identically.
func (h *ExtensionHooks) ApplyWebhookPacks(ingestor *webhooks.Ingestor) error {
	if h == nil {
		return nil
	}
	if ingestor == nil {
		return fmt.Errorf("messaging: webhook ingestor is required")
	}
	for _, pack := range h.WebhookPacks() {
		fields := make([]string, 0, len(pack.Handlers))
		for field := range pack.Handlers {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if err := ingestor.RegisterFieldHandler(field, pack.Handlers[field]); err != nil {
				return fmt.Errorf("messaging: apply webhook pack %q: %w", pack.Name, err)
			}
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("messaging: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	sort.Strings(names)
	bundles := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, fmt.Errorf("messaging: build bundle %q: %w", name, err)
		}
		bundles[name] = bundle
	}
	return bundles, nil
}

func (h *ExtensionHooks) ActionPacks() []ActionPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.actionPacks))
	for name := range h.actionPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	packs := make([]ActionPack, 0, len(names))
	for _, name := range names {
		packs = append(packs, h.actionPacks[name])
	}
	return packs
}

func (h *ExtensionHooks) WebhookPacks() []WebhookHandlerPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.webhookPacks))
	for name := range h.webhookPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	packs := make([]WebhookHandlerPack, 0, len(names))
	for _, name := range names {
		packs = append(packs, h.webhookPacks[name])
	}
	return packs
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
