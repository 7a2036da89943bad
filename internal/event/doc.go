// Package event provides the record types that flow through the ingestion pipeline.
//
// A Candidate is the best-effort result of extracting one posting; an Event is a
// candidate that passed validation and carries a completeness score, a stable
// identifier and timestamps. IDs are truncated SHA-256 digests of the origin URL,
// title and raw start date, so re-ingesting the same posting yields the same ID.
//
// The package also holds the date helpers shared by extraction, validation and
// deduplication, and a catalog diff used to report what a run changed.
package event
