package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-messaging-core/core"
)

const (
	markerRecords    = "Records"
	markerHTTPMethod = "httpMethod"
	markerBody       = "body"
	markerAction     = "action"
)

// Outcome is the per-record normalization result for batch payloads. A
// malformed record carries Err and never blocks its siblings.
type Outcome struct {
	Index   int
	Request core.ActionRequest
	Err     error
}

type Normalizer struct {
	NewInvocationID func() string
}

func New() *Normalizer {
	return &Normalizer{NewInvocationID: uuid.NewString}
}

// Normalize classifies payload and returns the requests it yields. Batch
// payloads contribute only their well-formed records; per-record failures are
// exposed through NormalizeOutcomes.
func (n *Normalizer) Normalize(payload []byte) ([]core.ActionRequest, error) {
	outcomes, err := n.NormalizeOutcomes(payload)
	if err != nil {
		return nil, err
	}
	requests := make([]core.ActionRequest, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			continue
		}
		requests = append(requests, outcome.Request)
	}
	return requests, nil
}

func (n *Normalizer) NormalizeOutcomes(payload []byte) ([]Outcome, error) {
	if n == nil {
		return nil, unrecognizedEnvelope("envelope: normalizer is nil", nil)
	}
	if len(payload) == 0 {
		return nil, unrecognizedEnvelope("envelope: empty payload", nil)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, unrecognizedEnvelopeWrap(err, "envelope: payload is not a JSON object", nil)
	}

	if records, ok := raw[markerRecords].([]any); ok {
		return n.normalizeBatch(records), nil
	}
	if hasGatewayMarker(raw) {
		request, err := n.normalizeGateway(raw)
		if err != nil {
			return nil, err
		}
		return []Outcome{{Request: request}}, nil
	}
	if _, ok := raw[markerAction]; ok {
		request, err := n.normalizeDirect(raw)
		if err != nil {
			return nil, err
		}
		return []Outcome{{Request: request}}, nil
	}

	return nil, unrecognizedEnvelope("envelope: unrecognized envelope shape", map[string]any{
		"keys": topLevelKeys(raw),
	})
}

// NormalizeArgs maps a command-line invocation onto the canonical request.
// The first argument is the action name; the rest are key=value or
// --key=value parameter pairs.
func (n *Normalizer) NormalizeArgs(args []string) (core.ActionRequest, error) {
	if n == nil {
		return core.ActionRequest{}, unrecognizedEnvelope("envelope: normalizer is nil", nil)
	}
	cleaned := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return core.ActionRequest{}, envelopeBadInput("envelope: action argument is required", nil)
	}

	action := cleaned[0]
	parameters := map[string]any{}
	for _, arg := range cleaned[1:] {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !found || strings.TrimSpace(key) == "" {
			return core.ActionRequest{}, envelopeBadInput(
				fmt.Sprintf("envelope: malformed argument %q, expected key=value", arg),
				map[string]any{"action": action},
			)
		}
		parameters[strings.TrimSpace(key)] = value
	}

	return core.ActionRequest{
		Action:       action,
		Parameters:   parameters,
		TriggerKind:  core.TriggerCLI,
		InvocationID: n.invocationID(),
		TriggerMetadata: map[string]any{
			"argv": strings.Join(cleaned, " "),
		},
	}, nil
}

func (n *Normalizer) normalizeBatch(records []any) []Outcome {
	outcomes := make([]Outcome, 0, len(records))
	for index, record := range records {
		request, err := n.normalizeRecord(index, record)
		if err != nil {
			outcomes = append(outcomes, Outcome{Index: index, Err: err})
			continue
		}
		outcomes = append(outcomes, Outcome{Index: index, Request: request})
	}
	return outcomes
}

func (n *Normalizer) normalizeRecord(index int, record any) (core.ActionRequest, error) {
	entry, ok := record.(map[string]any)
	if !ok {
		return core.ActionRequest{}, unrecognizedEnvelope(
			fmt.Sprintf("envelope: batch record %d is not an object", index),
			map[string]any{"record_index": index},
		)
	}

	body, err := recordBody(index, entry)
	if err != nil {
		return core.ActionRequest{}, err
	}
	action, parameters, err := actionAndParameters(body)
	if err != nil {
		return core.ActionRequest{}, unrecognizedEnvelopeWrap(err,
			fmt.Sprintf("envelope: batch record %d has no action", index),
			map[string]any{"record_index": index},
		)
	}

	metadata := map[string]any{"record_index": index}
	if source, ok := entry["eventSource"].(string); ok && strings.TrimSpace(source) != "" {
		metadata["event_source"] = source
	}

	return core.ActionRequest{
		Action:          action,
		Parameters:      parameters,
		TriggerKind:     core.TriggerBatch,
		TriggerMetadata: metadata,
		InvocationID:    n.invocationID(),
	}, nil
}

func (n *Normalizer) normalizeGateway(raw map[string]any) (core.ActionRequest, error) {
	body, err := decodeBody(raw[markerBody])
	if err != nil {
		return core.ActionRequest{}, unrecognizedEnvelopeWrap(err, "envelope: gateway body is not valid JSON", nil)
	}

	// Merge order: query string first, then path parameters, then the body.
	// The body always wins on key collisions.
	parameters := map[string]any{}
	mergeStringMap(parameters, raw["queryStringParameters"])
	mergeStringMap(parameters, raw["pathParameters"])
	action, bodyParams, err := actionAndParameters(body)
	if err != nil {
		if fromPath, ok := parameters[markerAction].(string); ok && strings.TrimSpace(fromPath) != "" {
			action = strings.TrimSpace(fromPath)
		} else {
			return core.ActionRequest{}, unrecognizedEnvelopeWrap(err, "envelope: gateway request has no action", nil)
		}
	}
	for key, value := range bodyParams {
		parameters[key] = value
	}
	delete(parameters, markerAction)

	metadata := map[string]any{}
	if method, ok := raw[markerHTTPMethod].(string); ok && method != "" {
		metadata["http_method"] = method
	}
	if path, ok := raw["path"].(string); ok && path != "" {
		metadata["path"] = path
	}

	return core.ActionRequest{
		Action:          action,
		Parameters:      parameters,
		TriggerKind:     core.TriggerGateway,
		TriggerMetadata: metadata,
		InvocationID:    n.invocationID(),
	}, nil
}

func (n *Normalizer) normalizeDirect(raw map[string]any) (core.ActionRequest, error) {
	action, parameters, err := actionAndParameters(raw)
	if err != nil {
		return core.ActionRequest{}, unrecognizedEnvelopeWrap(err, "envelope: direct payload has no action", nil)
	}

	kind := core.TriggerDirect
	if provided, ok := raw["triggerKind"].(string); ok && provided == string(core.TriggerSchedule) {
		kind = core.TriggerSchedule
	}
	metadata := map[string]any{}
	if provided, ok := raw["triggerMetadata"].(map[string]any); ok {
		for key, value := range provided {
			metadata[key] = value
		}
	}

	invocationID := n.invocationID()
	if provided, ok := raw["invocationId"].(string); ok && strings.TrimSpace(provided) != "" {
		invocationID = strings.TrimSpace(provided)
	}

	return core.ActionRequest{
		Action:          action,
		Parameters:      parameters,
		TriggerKind:     kind,
		TriggerMetadata: metadata,
		InvocationID:    invocationID,
	}, nil
}

func (n *Normalizer) invocationID() string {
	if n != nil && n.NewInvocationID != nil {
		return n.NewInvocationID()
	}
	return uuid.NewString()
}

func hasGatewayMarker(raw map[string]any) bool {
	if _, ok := raw[markerHTTPMethod]; ok {
		return true
	}
	_, ok := raw[markerBody]
	return ok
}

func recordBody(index int, entry map[string]any) (map[string]any, error) {
	value, ok := entry[markerBody]
	if !ok {
		// Records without a body carry the action payload inline.
		return entry, nil
	}
	body, err := decodeBody(value)
	if err != nil {
		return nil, unrecognizedEnvelopeWrap(err,
			fmt.Sprintf("envelope: batch record %d body is not valid JSON", index),
			map[string]any{"record_index": index},
		)
	}
	return body, nil
}

func decodeBody(value any) (map[string]any, error) {
	switch typed := value.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return typed, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return map[string]any{}, nil
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(typed), &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported body type %T", value)
	}
}

func actionAndParameters(body map[string]any) (string, map[string]any, error) {
	action, _ := body[markerAction].(string)
	action = strings.TrimSpace(action)
	if action == "" {
		return "", nil, fmt.Errorf("missing action field")
	}

	parameters := map[string]any{}
	if provided, ok := body["parameters"].(map[string]any); ok {
		for key, value := range provided {
			parameters[key] = value
		}
		return action, parameters, nil
	}
	for key, value := range body {
		switch key {
		case markerAction, "triggerKind", "triggerMetadata", "invocationId":
			continue
		}
		parameters[key] = value
	}
	return action, parameters, nil
}

func mergeStringMap(target map[string]any, value any) {
	source, ok := value.(map[string]any)
	if !ok {
		return
	}
	for key, entry := range source {
		target[key] = entry
	}
}

func topLevelKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	return keys
}
