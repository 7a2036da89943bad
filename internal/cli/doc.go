// Package cli implements the command-line interface for event-harvest.
//
// The cli package provides the Cobra-based commands: run (harvest every
// enabled source and reconcile the catalog), clean (re-validate the stored
// catalog), list (filter, sort and export events as text, JSON or
// iCalendar) and sources (inspect and import the source registry). It
// wires configuration, storage, the fetch client, the mailbox and metrics
// into the pipeline.
package cli
