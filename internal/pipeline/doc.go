// Package pipeline composes fetching, extraction, validation and
// deduplication.
//
// RunSource processes one source descriptor and never fails outward: every
// fault becomes a reason on the Result. Run fans RunSource out over a
// bounded worker pool and summarises the outcome. Reconcile folds a run's
// events into the stored catalog.
package pipeline
