// Package webhooks decomposes batched provider deliveries into typed events
// and routes each into the status engine.
//
// Every raw event is persisted for audit before specialized processing; the
// idempotency key computed from account, field, and the field's natural key
// (plus the status for message-status changes) suppresses duplicate
// transitions under at-least-once redelivery.
package webhooks
