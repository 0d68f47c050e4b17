package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-messaging-core/core"
)

const (
	TypeDispatchAction   = "messaging.command.action.dispatch"
	TypeIngestWebhook    = "messaging.command.webhook.ingest"
	TypeCreateEntity     = "messaging.command.status.create"
	TypeTransitionEntity = "messaging.command.status.transition"
	TypeRecomputeQuality = "messaging.command.quality.recompute"
)

type DispatchActionMessage struct {
	Request core.ActionRequest
}

func (DispatchActionMessage) Type() string { return TypeDispatchAction }

func (m DispatchActionMessage) Validate() error {
	if strings.TrimSpace(m.Request.Action) == "" {
		return fmt.Errorf("command: action name is required")
	}
	return nil
}

type IngestWebhookMessage struct {
	Payload []byte
}

func (IngestWebhookMessage) Type() string { return TypeIngestWebhook }

func (m IngestWebhookMessage) Validate() error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("command: webhook payload is required")
	}
	return nil
}

type CreateEntityMessage struct {
	Kind     core.EntityKind
	ID       string
	Metadata map[string]any
}

func (CreateEntityMessage) Type() string { return TypeCreateEntity }

func (m CreateEntityMessage) Validate() error {
	if err := validateKind(m.Kind); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("command: entity id is required")
	}
	return nil
}

type TransitionEntityMessage struct {
	Kind     core.EntityKind
	ID       string
	Target   string
	Metadata map[string]any
}

func (TransitionEntityMessage) Type() string { return TypeTransitionEntity }

func (m TransitionEntityMessage) Validate() error {
	if err := validateKind(m.Kind); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("command: entity id is required")
	}
	if strings.TrimSpace(m.Target) == "" {
		return fmt.Errorf("command: target state is required")
	}
	return nil
}

type RecomputeQualityMessage struct {
	Filter core.EntityFilter
}

func (RecomputeQualityMessage) Type() string { return TypeRecomputeQuality }

func (m RecomputeQualityMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return fmt.Errorf("command: filter limit must not be negative")
	}
	return nil
}

func validateKind(kind core.EntityKind) error {
	if _, err := core.InitialState(kind); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}
