// Package notify sends best-effort operator alerts to Telegram and,
// optionally, mobile push notifications through Firebase Cloud
// Messaging. Every method is nil-safe: a nil *Telegram or *Push is a
// valid "notifications disabled" value, never a crash.
package notify

import (
	"fmt"
	"log"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const chatIDFile = "chat_id.txt"

// Telegram sends trade-lifecycle alerts to a single operator chat and
// listens for /status, /start, /stop, /report commands plus incoming
// signal text from any chat the operator has wired a channel profile to.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram initializes the bot from token. TELEGRAM_CHAT_ID in the
// environment pins the operator chat; otherwise it is auto-detected from
// the first /start command and persisted to chatIDFile so a restart
// doesn't require re-sending it.
func NewTelegram(token string) *Telegram {
	if token == "" {
		log.Println("notify: TELEGRAM_BOT_TOKEN not set, operator notifications disabled")
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("notify: failed to init telegram bot: %v", err)
		return nil
	}
	log.Printf("notify: authorized on account %s", bot.Self.UserName)

	t := &Telegram{bot: bot}
	if id := os.Getenv("TELEGRAM_CHAT_ID"); id != "" {
		t.chatID, _ = strconv.ParseInt(id, 10, 64)
	} else {
		t.chatID = loadChatID()
	}
	return t
}

func loadChatID() int64 {
	data, err := os.ReadFile(chatIDFile)
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func saveChatID(id int64) {
	if err := os.WriteFile(chatIDFile, []byte(fmt.Sprintf("%d", id)), 0644); err != nil {
		log.Printf("notify: failed to persist chat id: %v", err)
	}
}

// IngestFunc receives raw (chatID, text) pairs for the signal registry to
// dispatch; every non-command message, from any chat including the
// operator's, is routed here.
type IngestFunc func(chatID int64, text string)

// StartEventListener polls Telegram long-poll updates until the process
// exits, routing commands to the given callbacks and everything else to
// ingest.
func (t *Telegram) StartEventListener(ingest IngestFunc, statusCallback, reportCallback func() string, stopCallback func()) {
	if t == nil {
		return
	}
	log.Println("notify: listening for telegram events")
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		if update.Message.IsCommand() {
			switch update.Message.Command() {
			case "status":
				if statusCallback != nil {
					t.Notify(statusCallback())
				}
			case "start":
				if t.chatID == 0 || t.chatID != update.Message.Chat.ID {
					t.chatID = update.Message.Chat.ID
					saveChatID(t.chatID)
					log.Printf("notify: operator chat id captured: %d", t.chatID)
				}
				t.Notify("connected. now relaying signal lifecycle events here.")
			case "stop":
				if stopCallback != nil {
					stopCallback()
				}
			case "report":
				if reportCallback != nil {
					t.Notify(reportCallback())
				}
			}
			continue
		}

		if ingest != nil {
			ingest(update.Message.Chat.ID, update.Message.Text)
		}
	}
}

// Notify sends msg to the operator chat, fire-and-forget. A nil
// receiver or unconfigured chat id silently does nothing, the same
// guard the teacher's Notify uses.
func (t *Telegram) Notify(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	go func() {
		cfg := tgbotapi.NewMessage(t.chatID, msg)
		if _, err := t.bot.Send(cfg); err != nil {
			log.Printf("notify: telegram send failed: %v", err)
		}
	}()
}
