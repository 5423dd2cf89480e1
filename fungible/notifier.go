package fungible

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

// Notifier runs the transfer-call flow: it verifies the caller granted
// enough budget to cover the receiver call plus the later resolution,
// performs the optimistic transfer, records a pending settlement, and
// hands the record to the scheduler. The transfer is committed before
// the receiver ever runs; only the resolver can claw funds back.
type Notifier struct {
	Executor    *Executor
	Settlements settlement.Store
	Scheduler   settlement.Scheduler
	Budgets     core.SettlementConfig
	Logger      core.Logger
	Now         func() time.Time
}

func NewNotifier(executor *Executor, store settlement.Store, scheduler settlement.Scheduler, budgets core.SettlementConfig) *Notifier {
	n := &Notifier{
		Executor:    executor,
		Settlements: store,
		Scheduler:   scheduler,
		Budgets:     budgets,
		Logger:      core.NopLogger(),
		Now:         time.Now,
	}
	if n.Budgets.ResolverBudget == 0 {
		n.Budgets.ResolverBudget = core.DefaultResolverBudget
	}
	if n.Budgets.TransferCallBudget == 0 {
		n.Budgets.TransferCallBudget = core.DefaultTransferCallBudget
	}
	return n
}

// TransferCall transfers and then notifies the receiver account. The
// budget check happens before any ledger write so an underfunded call
// fails with nothing to undo. A scheduler failure after the transfer
// committed is logged and left for the settlement dispatcher; the
// transfer itself cannot be cancelled at that point.
func (n *Notifier) TransferCall(ctx context.Context, transfer core.BalanceTransfer, budget uint64) (settlement.Pending, error) {
	if n == nil || n.Executor == nil || n.Settlements == nil {
		return settlement.Pending{}, fmt.Errorf("fungible: notifier not initialized")
	}
	if err := transfer.Validate(); err != nil {
		return settlement.Pending{}, err
	}
	if !transfer.IsTransferCall() {
		return settlement.Pending{}, fmt.Errorf("fungible: %w: transfer call requires a message", core.ErrInvalidTransfer)
	}
	meter := settlement.NewBudgetMeter(budget)
	if err := meter.Require(n.Budgets.TransferCallBudget); err != nil {
		return settlement.Pending{}, err
	}
	if err := meter.Debit(n.Budgets.ResolverBudget); err != nil {
		return settlement.Pending{}, err
	}

	if err := n.Executor.Transfer(ctx, transfer); err != nil {
		return settlement.Pending{}, err
	}

	now := n.now()
	pending := settlement.Pending{
		ID:             uuid.NewString(),
		Asset:          core.AssetFungible,
		Balance:        &transfer,
		Budget:         meter.Total(),
		ReceiverBudget: meter.Remaining(),
		Status:         settlement.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := n.Settlements.Create(ctx, pending)
	if err != nil {
		return settlement.Pending{}, fmt.Errorf("fungible: record settlement: %w", err)
	}

	if n.Scheduler != nil {
		if err := n.Scheduler.Schedule(ctx, created); err != nil {
			n.logger().Error("transfer call scheduling failed, settlement left for dispatch",
				"settlement_id", created.ID,
				"receiver", transfer.Receiver,
				"error", err,
			)
		}
	}
	return created, nil
}

func (n *Notifier) logger() core.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return core.NopLogger()
}

func (n *Notifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}
