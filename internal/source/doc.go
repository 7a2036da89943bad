// Package source describes where events come from.
//
// A Descriptor is one entry of the source registry (a website listing or a
// newsletter sender). Sources marked custom name an Override, a small record
// of organizer defaults, selector hints and post-extraction adjustments that
// tailors the generic extraction to one site.
package source
