// Package device defines the canonical device model for Auriga Core.
//
// It holds the vocabulary shared by every other package:
//
//   - Descriptor: an immutable snapshot of one discovered device, produced
//     once per discovery pass and never mutated.
//   - Role: the functional position a device fills (streamer, media server,
//     amplifier).
//   - Capability: a closed enumeration of controllable actions. Commands are
//     gated by explicit capability membership, never by probing for vendor
//     features at call time.
//   - State: the canonical vendor-agnostic snapshot (power, mute, volume,
//     capabilities) owned by an adapter and replaced wholesale by its
//     state-sync worker.
//
// # Snapshot discipline
//
// State values follow a single-writer, whole-snapshot-swap discipline: the
// adapter's sync worker builds a complete replacement State for every
// accepted inbound message and publishes it atomically. Readers receive
// clones and never observe a partially updated snapshot.
package device
