// Package nonfungible implements the ownership-ledger variant of the
// transfer-and-settle engine: unique token ids mapped to a single
// owner, with mint/burn/transfer and the notify-then-resolve flow that
// can return a token to its previous owner.
package nonfungible
