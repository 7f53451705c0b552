package stream

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"signalcore/internal/exchange"
)

const userStreamBaseURL = "wss://fstream.binance.com/ws/"

const listenKeyKeepaliveInterval = 30 * time.Minute

// UserEvent is the minimal shape the engine needs out of Binance's
// ACCOUNT_UPDATE and ORDER_TRADE_UPDATE payloads.
type UserEvent struct {
	Type  string `json:"e"`
	Order *struct {
		Symbol        string `json:"s"`
		ClientOrderID string `json:"c"`
		OrderID       int64  `json:"i"`
		Status        string `json:"X"`
		Side          string `json:"S"`
		FilledQty     string `json:"z"`
		AvgPrice      string `json:"ap"`
	} `json:"o"`
}

// UserStream owns the account's listen key lifecycle and the raw
// websocket that carries ACCOUNT_UPDATE/ORDER_TRADE_UPDATE events. Events
// redeliver on reconnect, so the handler must be idempotent.
type UserStream struct {
	client  exchange.Client
	dialer  *websocket.Dialer
	Handler func(UserEvent)
}

// NewUserStream builds a user stream bound to client. Handler may be set
// after construction, before Run is called.
func NewUserStream(client exchange.Client) *UserStream {
	return &UserStream{client: client, dialer: websocket.DefaultDialer}
}

// Run drives the listen-key lifecycle and the event socket until stop is
// closed, reconnecting and renewing the listen key exactly like the
// teacher's BinanceFutures.Start reconnect loop.
func (u *UserStream) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		listenKey, err := u.client.StartUserStream(context.Background())
		if err != nil {
			log.Printf("[stream] user stream start error: %v, retrying in 5s", err)
			time.Sleep(5 * time.Second)
			continue
		}

		conn, _, err := u.dialer.Dial(userStreamBaseURL+listenKey, nil)
		if err != nil {
			log.Printf("[stream] user stream connect error: %v, retrying in 5s", err)
			time.Sleep(5 * time.Second)
			continue
		}
		log.Println("[stream] user stream connected")

		keepaliveStop := make(chan struct{})
		go u.keepalive(listenKey, keepaliveStop)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					log.Printf("[stream] user stream read error: %v, reconnecting", err)
					return
				}
				u.dispatch(message)
			}
		}()

		select {
		case <-stop:
			close(keepaliveStop)
			conn.Close()
			return
		case <-done:
			close(keepaliveStop)
			conn.Close()
		}
	}
}

func (u *UserStream) keepalive(listenKey string, stop <-chan struct{}) {
	ticker := time.NewTicker(listenKeyKeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := u.client.KeepaliveUserStream(context.Background(), listenKey); err != nil {
				log.Printf("[stream] listen key keepalive error: %v", err)
			}
		}
	}
}

func (u *UserStream) dispatch(raw []byte) {
	var ev UserEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return
	}
	if u.Handler != nil {
		u.Handler(ev)
	}
}
