// Package engine implements the order lifecycle: turning a queued Signal
// into a live entry plus bracket, and reacting to account events as that
// bracket fills, moves its stop to break-even, or completes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"signalcore/internal/exchange"
	"signalcore/internal/rounding"
	"signalcore/internal/signal"
	"signalcore/internal/stream"
	"signalcore/internal/xerrors"
)

// Notifier is the engine's best-effort alerting seam; both the Telegram
// and push notifiers satisfy it, and nil is a valid value callers can
// pass when no notification channel is configured.
type Notifier interface {
	Notify(text string)
}

// Recorder is the engine's metrics seam; a nil Recorder is valid.
type Recorder interface {
	OrderPlaced(symbol string)
	BracketCompleted(symbol string)
	StopLossHit(symbol string)
	ReconcilerSwept(orphans int)
}

// FillNotifier is the engine's optional mobile-push seam; a nil
// FillNotifier is valid.
type FillNotifier interface {
	NotifyFill(tag, symbol, side string, price float64, reason string)
}

// Engine owns every live order and its bracket, and drives the placement
// and reconciliation algorithms against the exchange client.
type Engine struct {
	client       exchange.Client
	prices       *stream.PriceManager
	notifier     Notifier
	metrics      Recorder
	fillNotifier FillNotifier

	olock  sync.Mutex // guards orders and symbolProfiles
	orders map[string]*Order

	symbolProfiles map[string]exchange.SymbolProfile

	queue chan *signal.Signal
}

// New builds an Engine. notifier and recorder may be nil.
func New(client exchange.Client, prices *stream.PriceManager, notifier Notifier, recorder Recorder) *Engine {
	return &Engine{
		client:         client,
		prices:         prices,
		notifier:       notifier,
		metrics:        recorder,
		orders:         make(map[string]*Order),
		symbolProfiles: make(map[string]exchange.SymbolProfile),
		queue:          make(chan *signal.Signal, 256),
	}
}

// SetFillNotifier wires an optional mobile-push channel for fill/stop-out
// events. Safe to leave unset.
func (e *Engine) SetFillNotifier(n FillNotifier) {
	e.fillNotifier = n
}

// LoadExchangeInfo caches tick/lot precision for every symbol. Call once
// at startup before placing any order.
func (e *Engine) LoadExchangeInfo(ctx context.Context) error {
	profiles, err := e.client.ExchangeInfo(ctx)
	if err != nil {
		return err
	}
	e.olock.Lock()
	e.symbolProfiles = profiles
	e.olock.Unlock()
	return nil
}

// QueueSignal enqueues a parsed signal for asynchronous placement. It
// never blocks the caller on exchange I/O.
func (e *Engine) QueueSignal(s *signal.Signal) {
	select {
	case e.queue <- s:
	default:
		log.Printf("[engine] signal queue full, dropping %s/%s", s.Tag, s.Coin)
	}
}

// RunQueue drains QueueSignal'd signals until stop is closed. One
// goroutine; signals are placed sequentially so two entries never race
// the same symbol's subscription state. A failed placement is tried up to
// three times in all, five seconds apart; a DuplicateOrderError is not
// retried.
func (e *Engine) RunQueue(stop <-chan struct{}) {
	const placeOrderAttempts = 3
	const placeOrderRetryDelay = 5 * time.Second
	for {
		select {
		case <-stop:
			return
		case s := <-e.queue:
			var err error
			for attempt := 1; attempt <= placeOrderAttempts; attempt++ {
				err = e.placeOrder(context.Background(), s)
				var dup *xerrors.DuplicateOrderError
				if err == nil || errors.As(err, &dup) || attempt == placeOrderAttempts {
					break
				}
				select {
				case <-stop:
					return
				case <-time.After(placeOrderRetryDelay):
				}
			}
			if err != nil {
				log.Printf("[engine] placeOrder %s/%s failed: %v", s.Tag, s.Coin, err)
				if e.notifier != nil {
					e.notifier.Notify(fmt.Sprintf("order failed for %s: %v", s.Tag, err))
				}
			}
		}
	}
}

// placeOrder runs the full placement algorithm: duplicate guard, price
// subscription wait, autocorrection, leverage, entry-crossed guard,
// order-type selection, quantity, entry order, and (for a market entry)
// bracket creation.
func (e *Engine) placeOrder(ctx context.Context, s *signal.Signal) error {
	symbol := s.Symbol()

	e.olock.Lock()
	duplicate := e.hasLiveParentForSymbol(symbol)
	e.olock.Unlock()
	if duplicate {
		return &xerrors.DuplicateOrderError{Tag: s.Tag, Coin: s.Coin}
	}

	e.prices.Subscribe(symbol)

	var live float64
	var ok bool
	for attempt := 0; attempt < 20; attempt++ {
		live, ok = e.prices.Price(symbol)
		if ok {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}
	if !ok {
		e.prices.Unsubscribe(symbol)
		return &xerrors.PriceUnavailableError{Symbol: symbol}
	}

	s.Autocorrect(live)

	if s.Leverage <= 0 {
		s.Leverage = 20
	}
	if err := e.client.ChangeLeverage(ctx, symbol, s.Leverage); err != nil {
		log.Printf("[engine] change leverage %s: %v", symbol, err)
	}

	entrySide := futures.SideTypeBuy
	if s.Side == signal.Short {
		entrySide = futures.SideTypeSell
	}

	entryPrice := s.Entry
	maxEntry := s.MaxEntry

	// Step 6: the entry-crossed guard is unconditional — it fires whether
	// or not the signal wants a resting (wait) entry.
	crossedMaxEntry := (s.Side == signal.Long && live > maxEntry) || (s.Side == signal.Short && live < maxEntry)
	if crossedMaxEntry {
		e.prices.Unsubscribe(symbol)
		return &xerrors.EntryCrossedError{Price: live}
	}

	// Step 7: a wait entry only places a resting STOP band while price has
	// not yet reached the near entry; once it has, it degrades to MARKET
	// the same as a signal that never asked to wait.
	notYetAtEntry := (s.Side == signal.Long && live < entryPrice) || (s.Side == signal.Short && live > entryPrice)
	useStop := s.ForceLimitOrder && notYetAtEntry

	profile := e.profileFor(symbol)
	qty := e.quantityFor(s, live, profile)
	if qty <= 0 {
		e.prices.Unsubscribe(symbol)
		return fmt.Errorf("engine: computed zero quantity for %s", s.Tag)
	}

	var clientOrderID string
	req := exchange.OrderRequest{
		Symbol:   symbol,
		Side:     entrySide,
		Quantity: strconv.FormatFloat(qty, 'f', -1, 64),
	}
	if useStop {
		clientOrderID = newClientOrderID(prefixWaitEntry)
		req.Type = futures.OrderTypeStop
		req.TimeInForce = futures.TimeInForceTypeGTC
		req.StopPrice = strconv.FormatFloat(rounding.RoundPrice(entryPrice, profile.TickSize), 'f', -1, 64)
		req.Price = strconv.FormatFloat(rounding.RoundPrice(maxEntry, profile.TickSize), 'f', -1, 64)
	} else {
		clientOrderID = newClientOrderID(prefixMarketEntry)
		req.Type = futures.OrderTypeMarket
	}
	req.ClientOrderID = clientOrderID

	resp, err := e.client.CreateOrder(ctx, req)
	if err != nil {
		e.prices.Unsubscribe(symbol)
		return fmt.Errorf("engine: create entry order: %w", err)
	}

	useMarket := !useStop
	order := &Order{
		OrderID:       resp.OrderID,
		ClientOrderID: clientOrderID,
		Tag:           s.Tag,
		Symbol:        symbol,
		Side:          string(s.Side),
		EntryPrice:    entryPrice,
		Qty:           qty,
		IsWaitEntry:   !useMarket,
		PlacedAt:      time.Now(),
		Targets:       s.Targets,
		StopLoss:      s.StopLoss,
	}
	e.olock.Lock()
	e.orders[clientOrderID] = order
	e.olock.Unlock()

	if e.metrics != nil {
		e.metrics.OrderPlaced(symbol)
	}
	if e.notifier != nil {
		e.notifier.Notify(fmt.Sprintf("entry placed: %s %s @ %.8f qty %.8f", s.Tag, symbol, entryPrice, qty))
	}

	if useMarket {
		return e.placeCollectionOrders(ctx, order, s)
	}
	return nil
}

// quantityFor derives an order quantity from the signal's risked fraction
// of the account's available USDT balance and the live price, then rounds
// to the symbol's lot step.
func (e *Engine) quantityFor(s *signal.Signal, live float64, profile exchange.SymbolProfile) float64 {
	balance, err := e.client.AvailableBalance(context.Background(), "USDT")
	if err != nil || balance <= 0 {
		return 0
	}
	fraction := s.Fraction
	if fraction <= 0 {
		fraction = 0.01
	}
	notional := balance * fraction * float64(s.Leverage)
	qty := notional / live
	return rounding.RoundQty(qty, profile.StepSize)
}

// hasLiveParentForSymbol implements the duplicate guard: a market-type
// parent for the symbol blocks in any state, but a wait-type parent only
// blocks once it has filled (i.e. already has a stop-loss). Caller must
// hold olock.
func (e *Engine) hasLiveParentForSymbol(symbol string) bool {
	for _, order := range e.orders {
		if order.Symbol != symbol {
			continue
		}
		if !order.IsWaitEntry {
			return true
		}
		if order.StopLossChild() != nil {
			return true
		}
	}
	return false
}

func (e *Engine) profileFor(symbol string) exchange.SymbolProfile {
	e.olock.Lock()
	defer e.olock.Unlock()
	return e.symbolProfiles[symbol]
}
