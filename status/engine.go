package status

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-messaging-core/core"
)

// Engine applies transitions through a single read-modify-write against the
// entity store keyed by entity id. Concurrent writers race last-write-wins;
// the store is the serialization point.
type Engine struct {
	Store   core.EntityStore
	Logger  core.Logger
	Quality core.QualityConfig
	Now     func() time.Time
}

type EngineOption func(*Engine)

func WithLogger(logger core.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.Logger = glog.Ensure(logger)
		}
	}
}

func WithQualityConfig(quality core.QualityConfig) EngineOption {
	return func(e *Engine) {
		e.Quality = quality
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.Now = now
		}
	}
}

func NewEngine(store core.EntityStore, options ...EngineOption) *Engine {
	engine := &Engine{
		Store:   store,
		Logger:  glog.Nop(),
		Quality: core.DefaultConfig().Quality,
		Now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range options {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

// Create seeds the entity in its kind's initial state with the first history
// entry. The entity id is chosen by the caller.
func (e *Engine) Create(
	ctx context.Context,
	kind core.EntityKind,
	id string,
	metadata map[string]any,
) (core.StatableEntity, error) {
	if e == nil || e.Store == nil {
		return core.StatableEntity{}, statusError(
			"status: engine is not configured",
			goerrors.CategoryInternal, http.StatusInternalServerError, core.MessagingErrorInternal, nil,
		)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.StatableEntity{}, statusBadInput("status: entity id is required", map[string]any{
			"entity_kind": string(kind),
		})
	}
	initial, err := core.InitialState(kind)
	if err != nil {
		return core.StatableEntity{}, statusBadInput(
			fmt.Sprintf("status: invalid entity kind %q", kind),
			map[string]any{"entity_kind": string(kind)},
		)
	}

	now := e.now()
	entity := core.StatableEntity{
		ID:        id,
		Kind:      kind,
		CreatedAt: now,
	}
	entity.Append(initial, now, metadata)

	created, err := e.Store.Create(ctx, entity)
	if err != nil {
		return core.StatableEntity{}, statusUpstream(err,
			fmt.Sprintf("status: create %s %s failed", kind, id),
			map[string]any{"entity_kind": string(kind), "entity_id": id},
		)
	}
	e.log("info", "entity created",
		"entity_kind", string(kind), "entity_id", id, "state", initial)
	return created, nil
}

// Transition moves the entity to target if the kind's transition table allows
// it. A rejected target leaves the entity unchanged; accepted transitions
// append one history entry and advance currentState in a single store write.
func (e *Engine) Transition(
	ctx context.Context,
	kind core.EntityKind,
	id string,
	target string,
	metadata map[string]any,
) (core.StatableEntity, error) {
	if e == nil || e.Store == nil {
		return core.StatableEntity{}, statusError(
			"status: engine is not configured",
			goerrors.CategoryInternal, http.StatusInternalServerError, core.MessagingErrorInternal, nil,
		)
	}
	id = strings.TrimSpace(id)
	target = strings.TrimSpace(target)
	if id == "" || target == "" {
		return core.StatableEntity{}, statusBadInput("status: entity id and target state are required", map[string]any{
			"entity_kind": string(kind), "entity_id": id, "target": target,
		})
	}

	entity, err := e.get(ctx, kind, id)
	if err != nil {
		return core.StatableEntity{}, err
	}

	if !core.KnownState(kind, target) {
		return core.StatableEntity{}, statusRejected(
			fmt.Sprintf("status: unknown state %q for %s", target, kind),
			map[string]any{"entity_kind": string(kind), "entity_id": id, "target": target},
		)
	}
	if !core.TransitionAllowed(kind, entity.CurrentState, target) {
		return core.StatableEntity{}, statusRejected(
			fmt.Sprintf("status: transition %q -> %q rejected for %s %s", entity.CurrentState, target, kind, id),
			map[string]any{
				"entity_kind": string(kind),
				"entity_id":   id,
				"current":     entity.CurrentState,
				"target":      target,
			},
		)
	}

	entity.Append(target, e.now(), metadata)
	updated, err := e.Store.Update(ctx, entity)
	if err != nil {
		return core.StatableEntity{}, statusUpstream(err,
			fmt.Sprintf("status: update %s %s failed", kind, id),
			map[string]any{"entity_kind": string(kind), "entity_id": id, "target": target},
		)
	}
	e.log("info", "entity transitioned",
		"entity_kind", string(kind), "entity_id", id, "state", target)
	return updated, nil
}

func (e *Engine) Get(ctx context.Context, kind core.EntityKind, id string) (core.StatableEntity, error) {
	if e == nil || e.Store == nil {
		return core.StatableEntity{}, statusError(
			"status: engine is not configured",
			goerrors.CategoryInternal, http.StatusInternalServerError, core.MessagingErrorInternal, nil,
		)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.StatableEntity{}, statusBadInput("status: entity id is required", map[string]any{
			"entity_kind": string(kind),
		})
	}
	return e.get(ctx, kind, id)
}

func (e *Engine) get(ctx context.Context, kind core.EntityKind, id string) (core.StatableEntity, error) {
	entity, err := e.Store.Get(ctx, kind, id)
	if err != nil {
		if goerrors.Is(err, core.ErrEntityNotFound) {
			return core.StatableEntity{}, statusNotFound(
				fmt.Sprintf("status: %s %s not found", kind, id),
				map[string]any{"entity_kind": string(kind), "entity_id": id},
			)
		}
		return core.StatableEntity{}, statusUpstream(err,
			fmt.Sprintf("status: load %s %s failed", kind, id),
			map[string]any{"entity_kind": string(kind), "entity_id": id},
		)
	}
	return entity, nil
}

func (e *Engine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) log(level string, msg string, args ...any) {
	if e == nil || e.Logger == nil {
		return
	}
	switch level {
	case "warn":
		e.Logger.Warn(msg, args...)
	case "error":
		e.Logger.Error(msg, args...)
	default:
		e.Logger.Info(msg, args...)
	}
}

// IsRejected reports whether err is a transition rejection.
func IsRejected(err error) bool {
	return hasTextCode(err, core.MessagingErrorTransitionRejected)
}

// IsNotFound reports whether err is an entity miss.
func IsNotFound(err error) bool {
	return hasTextCode(err, core.MessagingErrorEntityNotFound)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

var _ core.StatusEngine = (*Engine)(nil)
