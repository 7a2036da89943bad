// Package validate decides whether extracted candidates are usable events.
//
// Validation and completeness scoring are independent: Score runs for every
// candidate, accepted or not, so callers can log near-misses. Accept promotes
// a passing candidate to an event with its identifier and timestamps.
package validate
