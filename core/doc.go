// Package core contains the canonical asset-ledger domain: descriptors,
// ledger and hook contracts, structured errors, and the event outbox.
// Variant engines (fungible, nonfungible) and storage adapters depend on
// this package; core must not depend on them.
package core
