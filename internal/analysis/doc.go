// Package analysis threads a dataset through column resolution and the burn
// engine as a sequence of immutable states.
//
// Every transition (Load, WithColumns, WithMode, WithPadding) returns a new
// *State; nothing is mutated in place. A Session holds the current state
// for one operator and swaps it under a lock, notifying subscribers after
// each swap.
//
// Phases advance Unloaded → NeedsColumns → Ready → Computed. Engine
// failures keep the phase at Computed with Err set, an all-true fallback
// for both masks and an error metric set; the next valid input recovers.
package analysis
