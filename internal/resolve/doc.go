// Package resolve implements role resolution for Auriga Core.
//
// Resolution turns (role, optional hint) into at most one bound device
// descriptor, using a strict heuristic chain per role:
//
//  1. No hint: auto-discover via the role-specific predicate over the
//     cached discovery snapshot.
//  2. Hint is a location URL: fetch the device description directly.
//  3. Hint is a bare host (streamer only): probe the vendor device-listing
//     endpoint; recoverable failures fall through rather than fail.
//  4. Hint is a friendly name: exact match against the snapshot.
//
// The streamer role is mandatory: every failure in its chain is fatal.
// Media server and amplifier are optional: absence degrades to "role
// absent" with a logged warning.
//
// Because the discovery Cache scans the network exactly once and returns a
// sorted snapshot, resolving the same (snapshot, hint) pair twice always
// yields the same descriptor.
package resolve
