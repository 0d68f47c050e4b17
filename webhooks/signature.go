package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignatureHeader carries the HMAC-SHA256 digest of the raw webhook body.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// SecretSource yields the signing secrets to try, current first. Returning
// more than one secret keeps verification working mid-rotation.
type SecretSource interface {
	Secrets() []string
}

type StaticSecret string

func (s StaticSecret) Secrets() []string {
	return []string{string(s)}
}

// RotatingSecret holds the active secret plus the one being retired.
type RotatingSecret struct {
	Current  string
	Previous string
}

func (s RotatingSecret) Secrets() []string {
	secrets := []string{s.Current}
	if strings.TrimSpace(s.Previous) != "" {
		secrets = append(secrets, s.Previous)
	}
	return secrets
}

type SignatureVerifier struct {
	source SecretSource
}

func NewSignatureVerifier(source SecretSource) (*SignatureVerifier, error) {
	if source == nil {
		return nil, fmt.Errorf("webhooks: secret source is required")
	}
	return &SignatureVerifier{source: source}, nil
}

// Verify checks header against the HMAC-SHA256 digest of payload. Every
// candidate secret is tried; comparison is constant time per candidate.
func (v *SignatureVerifier) Verify(payload []byte, header string) error {
	if v == nil || v.source == nil {
		return fmt.Errorf("webhooks: signature verifier is not configured")
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return fmt.Errorf("webhooks: signature header is required")
	}
	encoded := strings.TrimPrefix(header, signaturePrefix)
	if encoded == header {
		return fmt.Errorf("webhooks: signature header must use the %s scheme", signaturePrefix)
	}
	claimed, err := hex.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("webhooks: malformed signature digest: %w", err)
	}

	for _, secret := range v.source.Secrets() {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		if hmac.Equal(claimed, mac.Sum(nil)) {
			return nil
		}
	}
	return fmt.Errorf("webhooks: signature does not match payload")
}

// Signature computes the header value a sender produces for payload.
func Signature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// WithSignatureVerifier makes IngestSignedPayload enforce body signatures.
func WithSignatureVerifier(verifier *SignatureVerifier) IngestorOption {
	return func(i *Ingestor) {
		i.Verifier = verifier
	}
}

// IngestSignedPayload verifies the body signature before parsing. Without a
// configured verifier the signature header is ignored.
func (i *Ingestor) IngestSignedPayload(ctx context.Context, payload []byte, signature string) (IngestResult, error) {
	if i != nil && i.Verifier != nil {
		if err := i.Verifier.Verify(payload, signature); err != nil {
			return IngestResult{}, err
		}
	}
	return i.IngestPayload(ctx, payload)
}
