package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTelegram_EmptyTokenDisablesNotifications(t *testing.T) {
	assert.Nil(t, NewTelegram(""))
}

func TestTelegram_NilReceiverIsSafe(t *testing.T) {
	var tg *Telegram
	assert.NotPanics(t, func() { tg.Notify("should no-op") })
	assert.NotPanics(t, func() { tg.StartEventListener(nil, nil, nil, nil) })
}

func TestChatID_SaveAndLoadRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.Equal(t, int64(0), loadChatID())

	saveChatID(987654321)
	assert.Equal(t, int64(987654321), loadChatID())
}
