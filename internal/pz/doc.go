// Package pz extracts, tidies and interprets pole/zero sets.
//
// Snapping and spreading are display corrections:
//
//   - [Snap]: merges near-duplicate real poles split by root-finding noise
//     and rebuilds the characteristic polynomial from the snapped set
//   - [Spread]: offsets exactly coincident real poles so plot markers
//     do not overlap
//
// Neither is applied to the system used for time or frequency responses.
// The tolerances in [DefaultSnapConfig] are empirical and intentionally
// distort the raw root-finder output for readability.
//
// Settling-time estimates carry the [Method] that produced them, since the
// pole-based heuristic and the signal measurement are not interchangeable.
package pz
