package nonfungible

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

// Notifier runs the token transfer-call flow: budget check, optimistic
// ownership reassignment, pending settlement record, then the receiver
// notification via the scheduler. The receiver already owns the token
// by the time it is notified; the resolver returns it on rejection.
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

// TransferCall transfers the token and then notifies the receiver. The
// budget check happens before any ledger write. A scheduler failure
// after the transfer committed is logged and left for the settlement
// dispatcher.
func (n *Notifier) TransferCall(ctx context.Context, transfer core.TokenTransfer, budget uint64) (settlement.Pending, error) {
	if n == nil || n.Executor == nil || n.Settlements == nil {
		return settlement.Pending{}, fmt.Errorf("nonfungible: notifier not initialized")
	}
	if err := transfer.Validate(); err != nil {
		return settlement.Pending{}, err
	}
	if !transfer.IsTransferCall() {
		return settlement.Pending{}, fmt.Errorf("nonfungible: %w: transfer call requires a message", core.ErrInvalidTransfer)
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
		Asset:          core.AssetNonFungible,
		Token:          &transfer,
		Budget:         meter.Total(),
		ReceiverBudget: meter.Remaining(),
		Status:         settlement.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := n.Settlements.Create(ctx, pending)
	if err != nil {
		return settlement.Pending{}, fmt.Errorf("nonfungible: record settlement: %w", err)
	}

	if n.Scheduler != nil {
		if err := n.Scheduler.Schedule(ctx, created); err != nil {
			n.logger().Error("token transfer call scheduling failed, settlement left for dispatch",
				"settlement_id", created.ID,
				"token_id", transfer.TokenID,
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
