package settlement

import "github.com/goliatone/go-assets/core"

// BudgetMeter tracks the budget a caller granted to one transfer-call
// and debits it per call leg. The meter is not safe for concurrent use;
// each transfer-call gets its own.
type BudgetMeter struct {
	total     uint64
	remaining uint64
}

func NewBudgetMeter(total uint64) *BudgetMeter {
	return &BudgetMeter{total: total, remaining: total}
}

// Require fails when the remaining budget cannot cover min. It debits
// nothing, so callers can fail fast before any ledger write.
func (m *BudgetMeter) Require(min uint64) error {
	if m == nil {
		return &core.InsufficientBudgetError{Available: 0, Required: min}
	}
	if m.remaining < min {
		return &core.InsufficientBudgetError{Available: m.remaining, Required: min}
	}
	return nil
}

// Debit consumes cost from the remaining budget.
func (m *BudgetMeter) Debit(cost uint64) error {
	if err := m.Require(cost); err != nil {
		return err
	}
	m.remaining -= cost
	return nil
}

func (m *BudgetMeter) Remaining() uint64 {
	if m == nil {
		return 0
	}
	return m.remaining
}

func (m *BudgetMeter) Total() uint64 {
	if m == nil {
		return 0
	}
	return m.total
}
