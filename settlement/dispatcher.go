package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// DeferredScheduler leaves freshly created settlements in StatusPending
// for a later Dispatcher pass, typically run on a job schedule. The
// scheduling call itself does nothing: the pending record is already
// durable when the notifier hands it over.
type DeferredScheduler struct{}

func (DeferredScheduler) Schedule(_ context.Context, pending Pending) error {
	return pending.Validate()
}

type Stats struct {
	Claimed   int
	Resolved  int
	Retried   int
	Abandoned int
}

// Dispatcher claims due settlements and drives each one through the
// receiver call and the chained resolver. Receiver failures are normal
// outcomes (the resolver treats them as rejection); only store and
// resolver errors count as dispatch failures. A failed drive releases
// the claim with a backoff so a later pass retries it; once Attempts
// reaches MaxAttempts the settlement is abandoned and the optimistic
// mutation stands.
type Dispatcher struct {
	Store          Store
	Invoker        ReceiverInvoker
	ResolveBalance ResolveFunc
	ResolveToken   ResolveFunc
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	now func() time.Time
}

func NewDispatcher(
	store Store,
	invoker ReceiverInvoker,
	resolveBalance ResolveFunc,
	resolveToken ResolveFunc,
) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("settlement: store is required")
	}
	if invoker == nil {
		return nil, fmt.Errorf("settlement: receiver invoker is required")
	}
	return &Dispatcher{
		Store:          store,
		Invoker:        invoker,
		ResolveBalance: resolveBalance,
		ResolveToken:   resolveToken,
		BatchSize:      50,
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     5 * time.Minute,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (d *Dispatcher) DispatchDue(ctx context.Context, limit int) (Stats, error) {
	if d == nil || d.Store == nil || d.Invoker == nil {
		return Stats{}, fmt.Errorf("settlement: dispatcher is not configured")
	}
	if limit <= 0 {
		limit = d.BatchSize
	}
	if limit <= 0 {
		limit = 1
	}

	claimed, err := d.Store.ClaimDue(ctx, limit)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Claimed: len(claimed)}
	var dispatchErr error
	for _, pending := range claimed {
		if err := drive(ctx, d.Invoker, d.ResolveBalance, d.ResolveToken, pending); err != nil {
			dispatchErr = errors.Join(dispatchErr, fmt.Errorf("settlement %q: %w", pending.ID, err))
			if pending.Attempts >= d.maxAttempts() {
				if _, retryErr := d.Store.Retry(ctx, pending.ID, err, time.Time{}); retryErr != nil {
					dispatchErr = errors.Join(dispatchErr, retryErr)
				}
				stats.Abandoned++
				continue
			}
			nextAttemptAt := d.clock().Add(d.nextBackoffDelay(pending.Attempts))
			if _, retryErr := d.Store.Retry(ctx, pending.ID, err, nextAttemptAt); retryErr != nil {
				dispatchErr = errors.Join(dispatchErr, retryErr)
			}
			stats.Retried++
			continue
		}
		stats.Resolved++
	}
	return stats, dispatchErr
}

func (d *Dispatcher) maxAttempts() int {
	if d.MaxAttempts > 0 {
		return d.MaxAttempts
	}
	return 5
}

func (d *Dispatcher) nextBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := d.InitialBackoff
	if initial <= 0 {
		initial = 2 * time.Second
	}
	ceiling := d.MaxBackoff
	if ceiling <= 0 {
		ceiling = 5 * time.Minute
	}
	next := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if next < 0 || next > ceiling {
		return ceiling
	}
	return next
}

func (d *Dispatcher) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now().UTC()
}

var _ Scheduler = DeferredScheduler{}
