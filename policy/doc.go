// Package policy provides hook implementations that gate ledger
// operations without being part of the transfer state machine: a pause
// switch, receiver allowlists, and role-based mint/burn guards. Guards
// veto from the before hooks; they never mutate ledger state.
package policy
