// Package fungible implements the balance-ledger variant of the
// transfer-and-settle engine: sparse account balances with a total
// supply, an executor for deposit/withdraw/transfer/mint/burn, and the
// notifier/resolver pair that drives transfer-call settlement.
package fungible
