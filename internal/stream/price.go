// Package stream manages the two live Binance Futures websocket
// connections the engine depends on: the aggregated price multiplex and
// the per-account user data stream.
package stream

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const priceStreamBaseURL = "wss://fstream.binance.com/stream"

type combinedMsg struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type markPriceMsg struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
}

// PriceManager holds a multiset of subscribed symbols (reference counted,
// so two live brackets on the same coin keep the subscription alive until
// both close) and re-dials the multiplex connection whenever the unique
// symbol set changes.
type PriceManager struct {
	mu      sync.Mutex // slock: guards refs, prices, and the resubscribe signal
	refs    map[string]int
	prices  map[string]float64
	resub   chan struct{}
	dialer  *websocket.Dialer
	started bool
}

// NewPriceManager builds an idle manager; call Run once to begin
// dialing.
func NewPriceManager() *PriceManager {
	return &PriceManager{
		refs:   make(map[string]int),
		prices: make(map[string]float64),
		resub:  make(chan struct{}, 1),
		dialer: websocket.DefaultDialer,
	}
}

// Subscribe increments the reference count for symbol and triggers a
// resubscribe if it is newly added to the unique set.
func (p *PriceManager) Subscribe(symbol string) {
	p.mu.Lock()
	_, existed := p.refs[symbol]
	p.refs[symbol]++
	p.mu.Unlock()
	if !existed {
		p.signalResub()
	}
}

// Unsubscribe decrements the reference count, removing the symbol from
// the multiplex and triggering a resubscribe once no bracket still needs
// its price.
func (p *PriceManager) Unsubscribe(symbol string) {
	p.mu.Lock()
	p.refs[symbol]--
	removed := false
	if p.refs[symbol] <= 0 {
		delete(p.refs, symbol)
		delete(p.prices, symbol)
		removed = true
	}
	p.mu.Unlock()
	if removed {
		p.signalResub()
	}
}

func (p *PriceManager) signalResub() {
	select {
	case p.resub <- struct{}{}:
	default:
	}
}

// SetPrice records a price for symbol from outside the websocket feed,
// e.g. a REST fallback read taken before the first multiplex tick
// arrives.
func (p *PriceManager) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	p.prices[symbol] = price
	p.mu.Unlock()
}

// Price returns the last known mark price for symbol and whether one has
// arrived yet.
func (p *PriceManager) Price(symbol string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.prices[symbol]
	return v, ok
}

// Reconcile forcibly drops any subscribed symbol not present in desired,
// ignoring reference counts. The reconciler calls this once per sweep to
// correct drift if a bracket's teardown path ever missed an Unsubscribe.
func (p *PriceManager) Reconcile(desired map[string]bool) {
	p.mu.Lock()
	changed := false
	for s := range p.refs {
		if !desired[s] {
			delete(p.refs, s)
			delete(p.prices, s)
			changed = true
		}
	}
	p.mu.Unlock()
	if changed {
		p.signalResub()
	}
}

func (p *PriceManager) symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.refs))
	for s := range p.refs {
		out = append(out, s)
	}
	return out
}

// Run drives the multiplex connection until stop is closed. It re-dials
// on any read error or whenever the subscribed symbol set changes,
// matching the teacher's BinanceFutures.Start reconnect-loop shape
// generalized from a fixed symbol list to this manager's dynamic set.
func (p *PriceManager) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		symbols := p.symbols()
		if len(symbols) == 0 {
			select {
			case <-stop:
				return
			case <-p.resub:
				continue
			case <-time.After(time.Second):
				continue
			}
		}

		url := buildMultiplexURL(symbols)
		conn, _, err := p.dialer.Dial(url, nil)
		if err != nil {
			log.Printf("[stream] price connect error: %v, retrying in 5s", err)
			time.Sleep(5 * time.Second)
			continue
		}
		log.Printf("[stream] price connected, %d symbols", len(symbols))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					log.Printf("[stream] price read error: %v, reconnecting", err)
					return
				}
				p.handleMessage(message)
			}
		}()

		select {
		case <-stop:
			conn.Close()
			return
		case <-p.resub:
			conn.Close()
			<-done
		case <-done:
		}
	}
}

func (p *PriceManager) handleMessage(raw []byte) {
	var msg combinedMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if !strings.Contains(msg.Stream, "markPrice") {
		return
	}
	var mp markPriceMsg
	if err := json.Unmarshal(msg.Data, &mp); err != nil {
		return
	}
	price, err := strconv.ParseFloat(mp.Price, 64)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.prices[mp.Symbol] = price
	p.mu.Unlock()
}

func buildMultiplexURL(symbols []string) string {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + "@markPrice@1s"
	}
	return priceStreamBaseURL + "?streams=" + strings.Join(streams, "/")
}
