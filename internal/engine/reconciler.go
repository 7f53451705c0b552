package engine

import (
	"context"
	"log"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

// RunReconciler sweeps live state every OrderWatchInterval until stop is
// closed: cancels orphaned children, recomputes the desired symbol
// subscription set from local entries, drops local children no longer
// open on the exchange, and expires wait-entry brackets that never
// acquired a target.
func (e *Engine) RunReconciler(stop <-chan struct{}) {
	ticker := time.NewTicker(OrderWatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.sweep(context.Background())
		}
	}
}

func (e *Engine) sweep(ctx context.Context) {
	e.olock.Lock()
	orders := make([]*Order, 0, len(e.orders))
	for _, o := range e.orders {
		orders = append(orders, o)
	}
	e.olock.Unlock()

	exchangeOrders, err := e.client.GetAllOpenOrders(ctx)
	if err != nil {
		log.Printf("[reconciler] get all open orders: %v", err)
		return
	}
	liveByID := make(map[int64]*futures.Order, len(exchangeOrders))
	for _, o := range exchangeOrders {
		liveByID[o.OrderID] = o
	}

	knownChildIDs := make(map[int64]bool)
	for _, order := range orders {
		for _, c := range order.Children {
			knownChildIDs[c.OrderID] = true
		}
	}

	orphans := 0

	// Step 2: any open child (target/stop, by client order id prefix) on
	// the exchange whose parent isn't tracked locally is an orphan.
	for _, o := range exchangeOrders {
		if !isTargetOrderID(o.ClientOrderID) && !isStopLossOrderID(o.ClientOrderID) {
			continue
		}
		if knownChildIDs[o.OrderID] {
			continue
		}
		if err := e.client.CancelOrder(ctx, o.Symbol, o.OrderID); err != nil {
			log.Printf("[reconciler] cancel orphan child %s on %s: %v", o.ClientOrderID, o.Symbol, err)
			continue
		}
		orphans++
	}

	// Steps 3-4: desired subscriptions come from open entries; locally
	// known children no longer open on the exchange filled or were
	// cancelled out-of-band and are dropped, except children already
	// marked Filled, which are kept.
	desiredSymbols := make(map[string]bool, len(orders))
	for _, order := range orders {
		desiredSymbols[order.Symbol] = true

		e.olock.Lock()
		var stale []string
		for _, child := range order.Children {
			if liveByID[child.OrderID] == nil && !child.Filled {
				stale = append(stale, child.ClientOrderID)
			}
		}
		for _, id := range stale {
			order.removeChild(id)
		}
		e.olock.Unlock()

		// Step 6: only expire a wait entry that never acquired a bracket.
		if order.IsWaitEntry && len(order.TargetChildren()) == 0 && time.Since(order.PlacedAt) > WaitOrderExpiry {
			if liveByID[order.OrderID] != nil {
				if err := e.client.CancelOrder(ctx, order.Symbol, order.OrderID); err != nil {
					log.Printf("[reconciler] expire wait entry %s: %v", order.Tag, err)
				}
			}
			e.removeOrder(order)
		}
	}

	e.prices.Reconcile(desiredSymbols)

	if e.metrics != nil {
		e.metrics.ReconcilerSwept(orphans)
	}
}
