package notify

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// FillEvent is the data a mobile push about a fill or stop-out carries.
type FillEvent struct {
	Tag    string
	Symbol string
	Side   string
	Price  float64
	Reason string // "target", "stop_loss", "entry"
}

// Push sends best-effort FCM notifications for bracket fill events. A
// nil *Push (no serviceAccountKey.json present) is a valid, inert value.
type Push struct {
	client *messaging.Client
	queue  chan FillEvent
}

const pushQueueDepth = 500

// NewPush initializes Firebase from credentialsFile. Returns nil without
// error if the file is absent, matching the teacher's "push is optional"
// posture rather than failing startup over it.
func NewPush(credentialsFile string) *Push {
	if credentialsFile == "" {
		credentialsFile = "serviceAccountKey.json"
	}
	if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
		log.Println("notify: serviceAccountKey.json not found, push notifications disabled")
		return nil
	}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		log.Printf("notify: firebase init error: %v", err)
		return nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("notify: firebase messaging client error: %v", err)
		return nil
	}

	log.Println("notify: fcm push service initialized")
	return &Push{client: client, queue: make(chan FillEvent, pushQueueDepth)}
}

// StartWorker drains the push queue until stop is closed, sending each
// event synchronously so the worker itself governs FCM throughput.
func (p *Push) StartWorker(stop <-chan struct{}) {
	if p == nil {
		return
	}
	for {
		select {
		case <-stop:
			return
		case ev := <-p.queue:
			msg := &messaging.Message{
				Notification: &messaging.Notification{
					Title: fmt.Sprintf("%s %s", ev.Symbol, ev.Reason),
					Body:  fmt.Sprintf("%s at %.8f", ev.Side, ev.Price),
				},
				Data:  map[string]string{"tag": ev.Tag, "symbol": ev.Symbol, "reason": ev.Reason},
				Topic: "ALL_FILLS",
			}
			if _, err := p.client.Send(context.Background(), msg); err != nil {
				log.Printf("notify: fcm send error: %v", err)
			}
		}
	}
}

// NotifyFill enqueues a fill event, dropping it without blocking the
// caller if the worker has fallen behind. Satisfies engine.FillNotifier.
func (p *Push) NotifyFill(tag, symbol, side string, price float64, reason string) {
	if p == nil {
		return
	}
	ev := FillEvent{Tag: tag, Symbol: symbol, Side: side, Price: price, Reason: reason}
	select {
	case p.queue <- ev:
	default:
		log.Println("notify: push queue full, dropping fill event")
	}
}
