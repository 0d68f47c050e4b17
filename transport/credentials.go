package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Credential is one provider API credential rendered into an Authorization
// header.
type Credential struct {
	Scheme string
	Token  string
}

func (c Credential) HeaderValue() string {
	scheme := strings.TrimSpace(c.Scheme)
	token := strings.TrimSpace(c.Token)
	if scheme == "" {
		return token
	}
	return scheme + " " + token
}

// CredentialSource supplies the credential attached to outbound provider
// calls. Sources may rotate tokens between calls.
type CredentialSource interface {
	Credential(ctx context.Context) (Credential, error)
}

type CredentialSourceFunc func(ctx context.Context) (Credential, error)

func (f CredentialSourceFunc) Credential(ctx context.Context) (Credential, error) {
	return f(ctx)
}

type StaticCredentialSource struct {
	credential Credential
}

func NewStaticCredentialSource(scheme string, token string) StaticCredentialSource {
	return StaticCredentialSource{credential: Credential{
		Scheme: strings.TrimSpace(scheme),
		Token:  strings.TrimSpace(token),
	}}
}

func (s StaticCredentialSource) Credential(context.Context) (Credential, error) {
	if strings.TrimSpace(s.credential.Token) == "" {
		return Credential{}, fmt.Errorf("transport: static credential token is empty")
	}
	return s.credential, nil
}

type CredentialFailurePolicy string

const (
	CredentialFailurePolicyStrict   CredentialFailurePolicy = "strict_fail"
	CredentialFailurePolicyFallback CredentialFailurePolicy = "fallback_allowed"
)

type CredentialDiagnostic struct {
	OccurredAt time.Time
	Policy     CredentialFailurePolicy
	Outcome    string
	Error      string
}

type CredentialDiagnosticHook func(event CredentialDiagnostic)

type FailoverCredentialOption func(*FailoverCredentialSource)

// FailoverCredentialSource resolves from the primary source and, when the
// policy allows, falls back to a secondary one. Diagnostics surface each
// degraded resolution without exposing token material.
type FailoverCredentialSource struct {
	primary        CredentialSource
	fallback       CredentialSource
	policy         CredentialFailurePolicy
	diagnosticHook CredentialDiagnosticHook
	now            func() time.Time

	mu           sync.Mutex
	lastFallback time.Time
}

func NewFailoverCredentialSource(
	primary CredentialSource,
	opts ...FailoverCredentialOption,
) (*FailoverCredentialSource, error) {
	if primary == nil {
		return nil, fmt.Errorf("transport: primary credential source is required")
	}
	source := &FailoverCredentialSource{
		primary: primary,
		policy:  CredentialFailurePolicyStrict,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(source)
	}
	if source.policy != CredentialFailurePolicyStrict && source.policy != CredentialFailurePolicyFallback {
		source.policy = CredentialFailurePolicyStrict
	}
	if source.policy == CredentialFailurePolicyFallback && source.fallback == nil {
		return nil, fmt.Errorf("transport: fallback policy requires a fallback credential source")
	}
	if source.now == nil {
		source.now = func() time.Time { return time.Now().UTC() }
	}
	return source, nil
}

func WithFallbackCredentialSource(fallback CredentialSource) FailoverCredentialOption {
	return func(s *FailoverCredentialSource) {
		s.fallback = fallback
		s.policy = CredentialFailurePolicyFallback
	}
}

func WithCredentialFailurePolicy(policy CredentialFailurePolicy) FailoverCredentialOption {
	return func(s *FailoverCredentialSource) {
		s.policy = policy
	}
}

func WithCredentialDiagnosticHook(hook CredentialDiagnosticHook) FailoverCredentialOption {
	return func(s *FailoverCredentialSource) {
		s.diagnosticHook = hook
	}
}

func (s *FailoverCredentialSource) Credential(ctx context.Context) (Credential, error) {
	if s == nil || s.primary == nil {
		return Credential{}, fmt.Errorf("transport: credential source is not configured")
	}

	credential, err := s.primary.Credential(ctx)
	if err == nil {
		return credential, nil
	}

	if s.policy != CredentialFailurePolicyFallback || s.fallback == nil {
		s.emit("primary_failed", err)
		return Credential{}, fmt.Errorf("transport: resolve credential: %w", err)
	}

	credential, fallbackErr := s.fallback.Credential(ctx)
	if fallbackErr != nil {
		s.emit("fallback_failed", fallbackErr)
		return Credential{}, fmt.Errorf("transport: resolve fallback credential: %w", fallbackErr)
	}

	s.mu.Lock()
	s.lastFallback = s.now()
	s.mu.Unlock()
	s.emit("fallback_used", err)
	return credential, nil
}

// LastFallbackAt reports when the fallback source last served a credential.
func (s *FailoverCredentialSource) LastFallbackAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFallback
}

func (s *FailoverCredentialSource) emit(outcome string, err error) {
	if s.diagnosticHook == nil {
		return
	}
	event := CredentialDiagnostic{
		OccurredAt: s.now(),
		Policy:     s.policy,
		Outcome:    outcome,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.diagnosticHook(event)
}
