// Package packlens is a windowed viewer backend for large packed
// audio-chat containers.
//
// Containers of decoded conversation records are browsed through a
// bounded, page-aligned window: as the viewer scrolls, pages are fetched
// from a decode service over NATS, merged into the window, and evicted
// from the far side once the page capacity is exceeded. Embedded audio
// payloads never enter the window; they are classified by byte signature,
// parked in a blob store, and fetched on demand through handles.
//
// The packages compose bottom-up:
//
//   - pkg/ring: immutable fixed-capacity buffer with two-sided eviction
//   - sniff: audio format detection from leading byte signatures
//   - blobstore: out-of-band payload retention keyed by opaque handles
//   - externalize: entity tree rewriting, bytes leaves to markers
//   - window: the page-aligned view over the entity stream
//   - pageload: request coalescing for in-flight page fetches
//   - decode, remote: the decode service contract and its NATS client
//   - session: orchestration of one viewing session end to end
//   - gateway: the WebSocket surface for browser viewers
//
// The packlens binary under cmd/packlens ties these together with
// metrics, health reporting and file-watch reload.
package packlens
