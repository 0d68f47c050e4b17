// Package status enforces lifecycle transitions for statable entities and
// maintains their append-only history. Transition legality comes from the
// per-kind tables in core; illegal targets leave the entity unchanged and
// return an explicit rejection.
package status
