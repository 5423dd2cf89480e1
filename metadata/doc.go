// Package metadata stores descriptive contract and token metadata
// alongside the ownership ledger. Metadata never participates in
// transfer settlement; it is attached at mint time and removed at burn
// time.
package metadata
