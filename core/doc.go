// Package core defines the shared contracts for the messaging core: the
// action registry, canonical request/response envelopes, statable entity
// domain types with their transition tables, and the store and gateway
// boundaries consumed by the dispatcher, status engine, and webhook ingestor.
package core
