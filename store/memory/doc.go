// Package memstore provides in-memory implementations of the consumed store
// boundaries. They back tests and embedded single-process deployments; the
// sql store package provides the persistent equivalents.
package memstore
