// Package settlement carries the asynchronous half of a transfer-call:
// the pending-settlement record created after the optimistic ledger
// mutation, the scheduler that issues the receiver notification, and
// the plumbing that hands the receiver's raw outcome to the matching
// resolver exactly once.
package settlement
