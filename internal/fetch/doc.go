// Package fetch retrieves raw pages for the ingestion pipeline.
//
// A Client never returns an error to its caller: every fault is resolved
// into either content or an explicit absent result plus a log line. Calls
// are spaced by a per-client throttle, and transient faults (timeouts,
// connection failures, 5xx, 429) are retried with exponential backoff.
// Not-found and other client errors abort immediately.
package fetch
