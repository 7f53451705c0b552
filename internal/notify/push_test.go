package notify

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPush_MissingCredentialsFileDisablesPush(t *testing.T) {
	p := NewPush(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Nil(t, p)
}

func TestPush_NilReceiverIsSafe(t *testing.T) {
	var p *Push
	assert.NotPanics(t, func() { p.NotifyFill("BTC", "BTCUSDT", "LONG", 50000, "target") })
	assert.NotPanics(t, func() {
		stop := make(chan struct{})
		close(stop)
		p.StartWorker(stop)
	})
}

func TestPush_NotifyFill_DropsWhenQueueFull(t *testing.T) {
	p := &Push{queue: make(chan FillEvent, 1)}
	p.NotifyFill("A", "AUSDT", "LONG", 1, "target")
	// Queue depth 1 is now full; the second call must not block.
	done := make(chan struct{})
	go func() {
		p.NotifyFill("B", "BUSDT", "SHORT", 2, "stop_loss")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyFill blocked instead of dropping")
	}
	assert.Len(t, p.queue, 1)
}
