package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"

	"signalcore/internal/exchange"
	"signalcore/internal/rounding"
	"signalcore/internal/signal"
	"signalcore/internal/stream"
)

// placeCollectionOrders builds the bracket hanging off a filled entry:
// the stop loss first, then up to MaxTargets take-profit legs, halving
// quantity at every step but the last, which closes whatever remains via
// ClosePosition instead of a fixed quantity.
func (e *Engine) placeCollectionOrders(ctx context.Context, order *Order, s *signal.Signal) error {
	closeSide := futures.SideTypeSell
	if s.Side == signal.Short {
		closeSide = futures.SideTypeBuy
	}
	profile := e.profileFor(order.Symbol)

	if s.StopLoss != 0 {
		if err := e.placeSlOrder(ctx, order, s.StopLoss, closeSide, profile); err != nil {
			log.Printf("[engine] place stop loss for %s: %v", order.Tag, err)
		}
	}

	remainingQty := order.Qty
	targets := s.Targets
	if len(targets) > MaxTargets {
		targets = targets[:MaxTargets]
	}
	for i, price := range targets {
		last := i == len(targets)-1
		var qtyStr string
		req := exchange.OrderRequest{
			Symbol:        order.Symbol,
			Side:          closeSide,
			ClientOrderID: newClientOrderID(prefixTarget),
			WorkingType:   futures.WorkingTypeMarkPrice,
		}
		if last {
			// The terminal target alone guarantees the position flattens,
			// regardless of whether every intermediate limit leg filled.
			req.Type = futures.OrderTypeTakeProfitMarket
			req.StopPrice = strconv.FormatFloat(rounding.RoundPrice(price, profile.TickSize), 'f', -1, 64)
			req.ClosePosition = true
		} else {
			req.Type = futures.OrderTypeLimit
			req.TimeInForce = futures.TimeInForceTypeGTC
			req.Price = strconv.FormatFloat(rounding.RoundPrice(price, profile.TickSize), 'f', -1, 64)
			remainingQty = remainingQty / 2
			qtyStr = strconv.FormatFloat(rounding.RoundQty(remainingQty, profile.StepSize), 'f', -1, 64)
			req.Quantity = qtyStr
			req.ReduceOnly = true
		}

		resp, err := e.client.CreateOrder(ctx, req)
		if err != nil {
			log.Printf("[engine] place target %d for %s: %v", i, order.Tag, err)
			continue
		}

		child := &ChildOrder{
			OrderID:       resp.OrderID,
			ClientOrderID: req.ClientOrderID,
			Role:          RoleTarget,
			Price:         price,
		}
		e.olock.Lock()
		order.Children = append(order.Children, child)
		e.olock.Unlock()
	}
	return nil
}

// placeSlOrder places a stop-limit stop-loss leg for the full entry
// quantity. Called both from initial bracket creation and from
// moveStopLoss when replacing an existing stop.
func (e *Engine) placeSlOrder(ctx context.Context, order *Order, price float64, closeSide futures.SideType, profile exchange.SymbolProfile) error {
	priceStr := strconv.FormatFloat(rounding.RoundPrice(price, profile.TickSize), 'f', -1, 64)
	clientOrderID := newClientOrderID(prefixStopLoss)
	resp, err := e.client.CreateOrder(ctx, exchange.OrderRequest{
		Symbol:        order.Symbol,
		Side:          closeSide,
		Type:          futures.OrderTypeStop,
		TimeInForce:   futures.TimeInForceTypeGTC,
		Price:         priceStr,
		StopPrice:     priceStr,
		Quantity:      strconv.FormatFloat(rounding.RoundQty(order.Qty, profile.StepSize), 'f', -1, 64),
		ClientOrderID: clientOrderID,
		WorkingType:   futures.WorkingTypeMarkPrice,
		ReduceOnly:    true,
	})
	if err != nil {
		return err
	}
	e.olock.Lock()
	order.Children = append(order.Children, &ChildOrder{
		OrderID:       resp.OrderID,
		ClientOrderID: clientOrderID,
		Role:          RoleStopLoss,
		Price:         price,
	})
	e.olock.Unlock()
	return nil
}

// moveStopLoss cancels the bracket's current stop leg and places a fresh
// one at the given price, used both for break-even promotion and for a
// parser's MoveStopLoss control command.
func (e *Engine) moveStopLoss(ctx context.Context, order *Order, newPrice float64) error {
	closeSide := futures.SideTypeSell
	if order.Side == string(signal.Short) {
		closeSide = futures.SideTypeBuy
	}

	e.olock.Lock()
	existing := order.StopLossChild()
	e.olock.Unlock()
	if existing != nil {
		if err := e.client.CancelOrder(ctx, order.Symbol, existing.OrderID); err != nil {
			log.Printf("[engine] cancel old stop for %s: %v", order.Tag, err)
		}
		e.olock.Lock()
		order.removeChild(existing.ClientOrderID)
		e.olock.Unlock()
	}

	profile := e.profileFor(order.Symbol)
	return e.placeSlOrder(ctx, order, newPrice, closeSide, profile)
}

// HandleEvent reacts to FILLED order events (ORDER_TRADE_UPDATE) pushed
// by the user data stream; ACCOUNT_UPDATE events, other event types and
// other order statuses are ignored. Events redeliver on reconnect, so every branch
// must be a no-op when applied twice: a filled target whose child no
// longer exists, or a FILLED status on a client order id we have already
// torn down, are both silently ignored rather than treated as errors.
func (e *Engine) HandleEvent(ctx context.Context, ev stream.UserEvent) {
	if ev.Order == nil || ev.Order.Status != "FILLED" {
		return
	}
	clientOrderID := ev.Order.ClientOrderID

	e.olock.Lock()
	var order *Order
	for _, o := range e.orders {
		if o.ClientOrderID == clientOrderID || o.childByClientOrderID(clientOrderID) != nil {
			order = o
			break
		}
	}
	e.olock.Unlock()
	if order == nil {
		return
	}

	switch {
	case order.ClientOrderID == clientOrderID:
		e.handleEntryFill(ctx, order)
	case isTargetOrderID(clientOrderID):
		e.handleTargetFill(ctx, order, clientOrderID)
	case isStopLossOrderID(clientOrderID):
		e.handleStopLossFill(order)
	}
}

// handleEntryFill reacts to a parent fill: a market parent already built
// its bracket synchronously at placement time, so only a resting (wait)
// entry that has just filled needs its bracket built here, from the
// targets/stop it was placed with.
func (e *Engine) handleEntryFill(ctx context.Context, order *Order) {
	e.olock.Lock()
	wasWaiting := order.IsWaitEntry
	order.IsWaitEntry = false
	alreadyBuilt := len(order.TargetChildren()) > 0
	targets := order.Targets
	stopLoss := order.StopLoss
	side := signal.Side(order.Side)
	e.olock.Unlock()

	log.Printf("[engine] entry filled for %s", order.Tag)
	if !wasWaiting || alreadyBuilt {
		return
	}

	s := &signal.Signal{Side: side, Targets: targets, StopLoss: stopLoss}
	if err := e.placeCollectionOrders(ctx, order, s); err != nil {
		log.Printf("[engine] place bracket on wait-entry fill for %s: %v", order.Tag, err)
	}
}

// handleTargetFill tears down the bracket when the last target in t_ord
// fills — that leg alone closes the position via ClosePosition — and
// otherwise promotes the stop loss to break-even when the first target
// fills, a no-op on any other intermediate fill. The last check takes
// priority over the first: a single-target bracket's sole leg is both,
// and teardown is what actually applies there. A redelivered fill of a
// first target already marked Filled does not promote the stop again.
func (e *Engine) handleTargetFill(ctx context.Context, order *Order, clientOrderID string) {
	e.olock.Lock()
	child := order.childByClientOrderID(clientOrderID)
	alreadyFilled := child != nil && child.Filled
	if child != nil {
		child.Filled = true
	}
	targets := order.TargetChildren()
	isFirst := len(targets) > 0 && targets[0].ClientOrderID == clientOrderID
	isLast := len(targets) > 0 && targets[len(targets)-1].ClientOrderID == clientOrderID
	e.olock.Unlock()

	if child != nil && e.fillNotifier != nil {
		e.fillNotifier.NotifyFill(order.Tag, order.Symbol, order.Side, child.Price, "target")
	}

	switch {
	case isLast:
		e.closeBracket(ctx, order)
		if e.metrics != nil {
			e.metrics.BracketCompleted(order.Symbol)
		}
	case isFirst && child != nil && !alreadyFilled:
		if err := e.moveStopLoss(ctx, order, order.EntryPrice); err != nil {
			log.Printf("[engine] break-even promotion for %s: %v", order.Tag, err)
		}
	}
}

func (e *Engine) handleStopLossFill(order *Order) {
	if e.metrics != nil {
		e.metrics.StopLossHit(order.Symbol)
	}
	if e.fillNotifier != nil {
		if sl := order.StopLossChild(); sl != nil {
			e.fillNotifier.NotifyFill(order.Tag, order.Symbol, order.Side, sl.Price, "stop_loss")
		}
	}
	e.removeOrder(order)
}

// closeBracket cancels the stop loss (all targets already filled) and
// drops the parent from live state.
func (e *Engine) closeBracket(ctx context.Context, order *Order) {
	e.olock.Lock()
	sl := order.StopLossChild()
	e.olock.Unlock()
	if sl != nil {
		if err := e.client.CancelOrder(ctx, order.Symbol, sl.OrderID); err != nil {
			log.Printf("[engine] cancel stop on bracket completion for %s: %v", order.Tag, err)
		}
	}
	e.removeOrder(order)
}

// removeOrder drops the parent from live state, keyed by its client order
// id (spec §3: "held in state by client-supplied id").
func (e *Engine) removeOrder(order *Order) {
	if order == nil {
		return
	}
	e.olock.Lock()
	delete(e.orders, order.ClientOrderID)
	e.olock.Unlock()
	e.prices.Unsubscribe(order.Symbol)
}

// orderByTag finds the first live parent tagged tag. Caller must hold olock.
func (e *Engine) orderByTag(tag string) *Order {
	for _, order := range e.orders {
		if order.Tag == tag {
			return order
		}
	}
	return nil
}

// MoveStopLossByTag applies a parser's MoveStopLoss control command to
// the live bracket for tag.
func (e *Engine) MoveStopLossByTag(ctx context.Context, tag string, price float64) error {
	e.olock.Lock()
	order := e.orderByTag(tag)
	e.olock.Unlock()
	if order == nil {
		return fmt.Errorf("engine: no live order for tag %s", tag)
	}
	return e.moveStopLoss(ctx, order, price)
}

// ModifyTargetsByTag applies a parser's ModifyTargets control command:
// cancels every unfilled target child and replaces them with a fresh
// ladder sized from the parent's full entry quantity (order.Qty), as at
// initial bracket creation; quantity already closed by filled targets is
// not subtracted.
func (e *Engine) ModifyTargetsByTag(ctx context.Context, tag string, targets []float64) error {
	e.olock.Lock()
	order := e.orderByTag(tag)
	e.olock.Unlock()
	if order == nil {
		return fmt.Errorf("engine: no live order for tag %s", tag)
	}

	e.olock.Lock()
	var toCancel []*ChildOrder
	for _, c := range order.Children {
		if c.Role == RoleTarget && !c.Filled {
			toCancel = append(toCancel, c)
		}
	}
	e.olock.Unlock()

	for _, c := range toCancel {
		if err := e.client.CancelOrder(ctx, order.Symbol, c.OrderID); err != nil {
			log.Printf("[engine] cancel target on modify for %s: %v", order.Tag, err)
		}
		e.olock.Lock()
		order.removeChild(c.ClientOrderID)
		e.olock.Unlock()
	}

	var side signal.Side
	if order.Side == string(signal.Short) {
		side = signal.Short
	} else {
		side = signal.Long
	}
	s := &signal.Signal{Side: side, Targets: targets}
	return e.placeCollectionOrders(ctx, order, s)
}

// CloseTrades closes every live position matching tag (if non-empty) and
// coin (if non-empty), cancelling their bracket children first; with both
// empty it closes every live position. It
// iterates (key, value) pairs of the order map — deliberately, since the
// original implementation this is redesigned from iterated .values() as
// if each value were itself a (key, value) tuple, a bug this version does
// not replicate.
func (e *Engine) CloseTrades(ctx context.Context, tag, coin string) error {
	e.olock.Lock()
	var matches []*Order
	for _, order := range e.orders {
		if tag != "" && order.Tag != tag {
			continue
		}
		if coin != "" && order.Symbol != coin+"USDT" {
			continue
		}
		matches = append(matches, order)
	}
	e.olock.Unlock()

	var firstErr error
	for _, order := range matches {
		if err := e.closeOneTrade(ctx, order); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Engine) closeOneTrade(ctx context.Context, order *Order) error {
	for _, child := range order.Children {
		if err := e.client.CancelOrder(ctx, order.Symbol, child.OrderID); err != nil {
			log.Printf("[engine] cancel child on close %s: %v", order.Tag, err)
		}
	}
	closeSide := futures.SideTypeSell
	if order.Side == string(signal.Short) {
		closeSide = futures.SideTypeBuy
	}
	_, err := e.client.CreateOrder(ctx, exchange.OrderRequest{
		Symbol:        order.Symbol,
		Side:          closeSide,
		Type:          futures.OrderTypeMarket,
		ClosePosition: true,
		ClientOrderID: newClientOrderID(prefixMarketEntry),
	})
	if err != nil {
		return fmt.Errorf("close trade %s: %w", order.Tag, err)
	}
	e.removeOrder(order)
	return nil
}
