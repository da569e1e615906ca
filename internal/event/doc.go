// Package event provides the canonical event record shared by every source and
// the helpers that turn raw scraped records into it.
//
// A Record is one occurrence of an event as reported by one source. Raw records
// are normalized with Normalize, which rejects records without a usable name.
// Signature and VenueSignature derive the cheap equality keys used for
// deduplication and location synthesis. Unknown JSON keys on records and their
// metadata survive a decode/encode round trip so provenance is never lost.
package event
