// Command engine runs the signal-to-order lifecycle service: it ingests
// Telegram channel text, parses it into trade signals, and drives their
// full lifecycle against Binance Futures.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalcore/internal/config"
	"signalcore/internal/engine"
	"signalcore/internal/exchange"
	"signalcore/internal/metrics"
	"signalcore/internal/notify"
	sig "signalcore/internal/signal"
	"signalcore/internal/stream"
)

func main() {
	log.Println("signalcore engine starting")

	cfg := config.Load()
	channels, err := config.LoadChannels("")
	if err != nil {
		log.Printf("config: channel profiles unavailable, continuing with none: %v", err)
		channels = map[int64]config.ChannelProfile{}
	}

	client := exchange.New(cfg.BinanceAPIKey, cfg.BinanceAPISecret, cfg.IsTestnet)
	prices := stream.NewPriceManager()

	telegram := notify.NewTelegram(cfg.TelegramToken)
	push := notify.NewPush("")

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)

	eng := engine.New(client, prices, telegram, recorder)
	eng.SetFillNotifier(push)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.LoadExchangeInfo(ctx); err != nil {
		log.Fatalf("failed to load exchange info: %v", err)
	}

	registry := sig.NewRegistry()
	for chatID, profile := range channels {
		parser, ok := sig.Parsers[profile.Parser]
		if !ok {
			log.Printf("config: unknown parser %q for chat %d, skipping", profile.Parser, chatID)
			continue
		}
		registry.Register(chatID, parser)
	}

	stop := make(chan struct{})
	userStream := stream.NewUserStream(client)
	userStream.Handler = func(ev stream.UserEvent) { eng.HandleEvent(ctx, ev) }

	go eng.RunQueue(stop)
	go eng.RunReconciler(stop)
	go prices.Run(stop)
	go userStream.Run(stop)

	if push != nil {
		go push.StartWorker(stop)
	}

	if telegram != nil {
		telegram.Notify("signalcore engine online")
		go telegram.StartEventListener(
			func(chatID int64, text string) {
				res := registry.Parse(chatID, text)
				dispatch(eng, res)
			},
			func() string { return "running" },
			func() string { return "running" },
			func() { close(stop) },
		)
	}

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	http.HandleFunc("/healthz", healthz)
	go func() {
		if err := http.ListenAndServe(":"+cfg.HealthPort, nil); err != nil {
			log.Printf("health server stopped: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Println("signalcore engine shutting down")
	close(stop)
}

func dispatch(eng *engine.Engine, res sig.ParseResult) {
	ctx := context.Background()
	switch {
	case res.Signal != nil:
		eng.QueueSignal(res.Signal)
	case res.CloseTrade != nil:
		if err := eng.CloseTrades(ctx, res.CloseTrade.Tag, res.CloseTrade.Coin); err != nil {
			log.Printf("close trades failed: %v", err)
		}
	case res.MoveStopLoss != nil:
		if err := eng.MoveStopLossByTag(ctx, res.MoveStopLoss.Tag, res.MoveStopLoss.Price); err != nil {
			log.Printf("move stop loss failed: %v", err)
		}
	case res.ModifyTargets != nil:
		if err := eng.ModifyTargetsByTag(ctx, res.ModifyTargets.Tag, res.ModifyTargets.Targets); err != nil {
			log.Printf("modify targets failed: %v", err)
		}
	case res.Err != nil:
		log.Printf("signal parse error: %v", res.Err)
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
