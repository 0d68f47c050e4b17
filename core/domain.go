package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidEntityKind    = errors.New("core: invalid entity kind")
	ErrEntityNotFound       = errors.New("core: entity not found")
	ErrTransitionRejected   = errors.New("core: status transition rejected")
	ErrEmptyHistory         = errors.New("core: status history is empty")
	ErrHistoryStateMismatch = errors.New("core: current state does not match last history entry")
)

type EntityKind string

const (
	EntityKindCall           EntityKind = "call"
	EntityKindPayment        EntityKind = "payment"
	EntityKindRefund         EntityKind = "refund"
	EntityKindDeliveryRecord EntityKind = "message_delivery_record"
)

const (
	CallStateInitiated = "initiated"
	CallStateRinging   = "ringing"
	CallStateConnected = "connected"
	CallStateEnded     = "ended"
	CallStateFailed    = "failed"
	CallStateMissed    = "missed"
)

const (
	PaymentStatePending    = "pending"
	PaymentStateProcessing = "processing"
	PaymentStateCompleted  = "completed"
	PaymentStateFailed     = "failed"
	PaymentStateCancelled  = "cancelled"
)

const (
	DeliveryStateSent      = "sent"
	DeliveryStateDelivered = "delivered"
	DeliveryStateRead      = "read"
	DeliveryStateFailed    = "failed"
)

type StatusEntry struct {
	State     string
	Timestamp time.Time
	Metadata  map[string]any
}

// StatableEntity is a tracked object whose lifecycle is governed by a
// per-kind allowed-transition table. StatusHistory is append-only and
// CurrentState always equals the last history entry; entities reach a
// terminal state and remain for audit, they are never deleted.
type StatableEntity struct {
	ID            string
	Kind          EntityKind
	CurrentState  string
	StatusHistory []StatusEntry
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e StatableEntity) Validate() error {
	if _, err := InitialState(e.Kind); err != nil {
		return err
	}
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidEntityKind)
	}
	if len(e.StatusHistory) == 0 {
		return fmt.Errorf("%w: %s %s", ErrEmptyHistory, e.Kind, e.ID)
	}
	last := e.StatusHistory[len(e.StatusHistory)-1]
	if last.State != e.CurrentState {
		return fmt.Errorf("%w: current %q, last entry %q", ErrHistoryStateMismatch, e.CurrentState, last.State)
	}
	return nil
}

// Append records an accepted transition. It does not re-check the transition
// table; callers go through TransitionAllowed first.
func (e *StatableEntity) Append(state string, now time.Time, metadata map[string]any) {
	if e == nil {
		return
	}
	e.StatusHistory = append(e.StatusHistory, StatusEntry{
		State:     state,
		Timestamp: now,
		Metadata:  cloneFields(metadata),
	})
	e.CurrentState = state
	e.UpdatedAt = now
	for key, value := range metadata {
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		e.Metadata[key] = value
	}
}

func InitialState(kind EntityKind) (string, error) {
	switch kind {
	case EntityKindCall:
		return CallStateInitiated, nil
	case EntityKindPayment, EntityKindRefund:
		return PaymentStatePending, nil
	case EntityKindDeliveryRecord:
		return DeliveryStateSent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityKind, kind)
	}
}

func TransitionAllowed(kind EntityKind, current string, next string) bool {
	switch kind {
	case EntityKindCall:
		return callTransitionAllowed(current, next)
	case EntityKindPayment, EntityKindRefund:
		return settlementTransitionAllowed(current, next)
	case EntityKindDeliveryRecord:
		return deliveryTransitionAllowed(current, next)
	default:
		return false
	}
}

func IsTerminalState(kind EntityKind, state string) bool {
	switch kind {
	case EntityKindCall:
		return state == CallStateEnded || state == CallStateFailed || state == CallStateMissed
	case EntityKindPayment, EntityKindRefund:
		return state == PaymentStateCompleted || state == PaymentStateFailed || state == PaymentStateCancelled
	case EntityKindDeliveryRecord:
		return state == DeliveryStateRead || state == DeliveryStateFailed
	default:
		return false
	}
}

func KnownState(kind EntityKind, state string) bool {
	states, ok := statesByKind[kind]
	if !ok {
		return false
	}
	for _, known := range states {
		if known == state {
			return true
		}
	}
	return false
}

var statesByKind = map[EntityKind][]string{
	EntityKindCall: {
		CallStateInitiated, CallStateRinging, CallStateConnected,
		CallStateEnded, CallStateFailed, CallStateMissed,
	},
	EntityKindPayment: {
		PaymentStatePending, PaymentStateProcessing, PaymentStateCompleted,
		PaymentStateFailed, PaymentStateCancelled,
	},
	EntityKindRefund: {
		PaymentStatePending, PaymentStateProcessing, PaymentStateCompleted,
		PaymentStateFailed, PaymentStateCancelled,
	},
	EntityKindDeliveryRecord: {
		DeliveryStateSent, DeliveryStateDelivered, DeliveryStateRead, DeliveryStateFailed,
	},
}

func callTransitionAllowed(current, next string) bool {
	// failed and missed are reachable from any non-terminal state.
	if next == CallStateFailed || next == CallStateMissed {
		return !IsTerminalState(EntityKindCall, current)
	}
	// ringing is optional; providers may report connected directly.
	allowed := map[string]map[string]struct{}{
		CallStateInitiated: {
			CallStateRinging:   {},
			CallStateConnected: {},
		},
		CallStateRinging: {
			CallStateConnected: {},
		},
		CallStateConnected: {
			CallStateEnded: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

func settlementTransitionAllowed(current, next string) bool {
	allowed := map[string]map[string]struct{}{
		PaymentStatePending: {
			PaymentStateProcessing: {},
			PaymentStateFailed:     {},
			PaymentStateCancelled:  {},
		},
		PaymentStateProcessing: {
			PaymentStateCompleted: {},
			PaymentStateFailed:    {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

func deliveryTransitionAllowed(current, next string) bool {
	allowed := map[string]map[string]struct{}{
		DeliveryStateSent: {
			DeliveryStateDelivered: {},
			DeliveryStateFailed:    {},
		},
		DeliveryStateDelivered: {
			DeliveryStateRead:   {},
			DeliveryStateFailed: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}
