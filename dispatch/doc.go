// Package dispatch resolves canonical action requests against the registry
// and invokes handlers uniformly. Dispatch is total: handler errors and
// panics become structured responses, never a crash of the long-lived
// process.
package dispatch
