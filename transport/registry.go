package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-messaging-core/core"
)

// Gateway is a messaging gateway with a routable kind. The registry hands the
// core a concrete gateway; the core only ever sees core.MessagingGateway.
type Gateway interface {
	core.MessagingGateway
	Kind() string
}

type GatewayFactory func(config map[string]any) (Gateway, error)

type Registry struct {
	mu        sync.RWMutex
	gateways  map[string]Gateway
	factories map[string]GatewayFactory
}

func NewRegistry() *Registry {
	return &Registry{
		gateways:  map[string]Gateway{},
		factories: map[string]GatewayFactory{},
	}
}

// NewDefaultRegistry registers the noop gateway and a rest factory. The rest
// gateway needs an endpoint, so it stays a factory until config arrives.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	_ = registry.Register(NewNoopGateway())
	_ = registry.RegisterFactory(KindREST, func(config map[string]any) (Gateway, error) {
		endpoint := strings.TrimSpace(fmt.Sprint(config["endpoint"]))
		if endpoint == "" || endpoint == "<nil>" {
			return nil, fmt.Errorf("transport: rest gateway requires an endpoint")
		}
		gateway := NewRESTGateway(nil, endpoint)
		if token, ok := config["token"].(string); ok && strings.TrimSpace(token) != "" {
			scheme, _ := config["auth_scheme"].(string)
			if strings.TrimSpace(scheme) == "" {
				scheme = "Bearer"
			}
			gateway.Credentials = NewStaticCredentialSource(scheme, token)
		}
		return gateway, nil
	})
	return registry
}

func (r *Registry) Register(gateway Gateway) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if gateway == nil {
		return fmt.Errorf("transport: gateway is nil")
	}
	kind := normalizeKind(gateway.Kind())
	if kind == "" {
		return fmt.Errorf("transport: gateway kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.gateways[kind]; exists {
		return fmt.Errorf("transport: gateway kind %q already registered", kind)
	}
	r.gateways[kind] = gateway
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory GatewayFactory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: gateway kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: gateway factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("transport: gateway factory kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Build returns the registered gateway for kind, falling back to the kind's
// factory when no instance was registered directly.
func (r *Registry) Build(kind string, config map[string]any) (Gateway, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return nil, fmt.Errorf("transport: gateway kind is required")
	}

	r.mu.RLock()
	gateway, ok := r.gateways[kind]
	factory := r.factories[kind]
	r.mu.RUnlock()
	if ok {
		return gateway, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("transport: gateway kind %q not registered", kind)
	}
	built, err := factory(cloneMap(config))
	if err != nil {
		return nil, err
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for %q returned nil gateway", kind)
	}
	return built, nil
}

func (r *Registry) Get(kind string) (Gateway, bool) {
	if r == nil {
		return nil, false
	}
	kind = normalizeKind(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	gateway, ok := r.gateways[kind]
	return gateway, ok
}

func (r *Registry) List() []Gateway {
	if r == nil {
		return []Gateway{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.gateways))
	for kind := range r.gateways {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	result := make([]Gateway, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, r.gateways[kind])
	}
	return result
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

func cloneMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}
