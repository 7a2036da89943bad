// Package extract turns raw listing pages and newsletter bodies into
// candidate events.
//
// Extraction is best-effort and cascading: every field has an ordered list
// of strategies (per-source selector hints first, then generic selectors,
// then text scans) and the first success wins. A container without any
// usable title yields no candidate; every other field may stay empty.
//
// Pages are split into containers by item selectors, falling back to the
// whole body. Newsletters are partitioned by event-styled elements, then by
// date-bearing list items, table rows and blocks, and finally by splitting
// plain text on dates.
package extract
