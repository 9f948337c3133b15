// Package focus holds the focus-state controller: the rule compiler, the stats ledger,
// the reconciler state machine and the status projection.
//
// Nothing in this package is safe for concurrent use. A single owner (the daemon's
// command loop) threads one *State through a Ledger and a Reconciler and calls them
// sequentially; Project is pure and may be called with a copy of the state.
package focus
