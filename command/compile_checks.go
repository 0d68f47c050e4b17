package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[DispatchActionMessage]   = (*DispatchActionCommand)(nil)
	_ gocmd.Commander[IngestWebhookMessage]    = (*IngestWebhookCommand)(nil)
	_ gocmd.Commander[CreateEntityMessage]     = (*CreateEntityCommand)(nil)
	_ gocmd.Commander[TransitionEntityMessage] = (*TransitionEntityCommand)(nil)
	_ gocmd.Commander[RecomputeQualityMessage] = (*RecomputeQualityCommand)(nil)
)
