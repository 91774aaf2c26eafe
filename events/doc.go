// Package events defines the domain events emitted after committed writes
// and the publishers that deliver them.
//
// A Journal publishes each event as one zstd-compressed object in an
// objstore.Store, keyed by day and by the BLAKE3 hash of its encoding:
//
//	<prefix>/2024/03/01/<blake3-hex>.json.zst
//
// Identical events therefore map to the same object, which makes republishing
// idempotent.
package events
