package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceManager_SubscribeIsReferenceCounted(t *testing.T) {
	p := NewPriceManager()
	p.Subscribe("BTCUSDT")
	p.Subscribe("BTCUSDT")
	assert.ElementsMatch(t, []string{"BTCUSDT"}, p.symbols())

	p.Unsubscribe("BTCUSDT")
	assert.ElementsMatch(t, []string{"BTCUSDT"}, p.symbols(), "still referenced once")

	p.Unsubscribe("BTCUSDT")
	assert.Empty(t, p.symbols(), "last reference dropped")
}

func TestPriceManager_HandleMessageUpdatesPrice(t *testing.T) {
	p := NewPriceManager()
	p.Subscribe("BTCUSDT")
	p.handleMessage([]byte(`{"stream":"btcusdt@markPrice@1s","data":{"s":"BTCUSDT","p":"51234.50000000"}}`))

	price, ok := p.Price("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 51234.5, price)
}

func TestPriceManager_HandleMessageIgnoresNonMarkPriceStreams(t *testing.T) {
	p := NewPriceManager()
	p.handleMessage([]byte(`{"stream":"btcusdt@aggTrade","data":{"s":"BTCUSDT","p":"1"}}`))
	_, ok := p.Price("BTCUSDT")
	assert.False(t, ok)
}

func TestPriceManager_SetPriceOverridesDirectly(t *testing.T) {
	p := NewPriceManager()
	p.SetPrice("ETHUSDT", 3000)
	price, ok := p.Price("ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, 3000.0, price)
}

func TestPriceManager_Reconcile_DropsUndesiredSymbols(t *testing.T) {
	p := NewPriceManager()
	p.Subscribe("BTCUSDT")
	p.Subscribe("ETHUSDT")
	p.Reconcile(map[string]bool{"BTCUSDT": true})
	assert.ElementsMatch(t, []string{"BTCUSDT"}, p.symbols())
}

func TestBuildMultiplexURL(t *testing.T) {
	url := buildMultiplexURL([]string{"BTCUSDT", "ETHUSDT"})
	assert.Contains(t, url, "btcusdt@markPrice@1s")
	assert.Contains(t, url, "ethusdt@markPrice@1s")
}
