package stream

import (
	"context"
	"testing"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalcore/internal/exchange"
)

type fakeExchangeClient struct{}

func (fakeExchangeClient) ExchangeInfo(ctx context.Context) (map[string]exchange.SymbolProfile, error) {
	return nil, nil
}
func (fakeExchangeClient) AvailableBalance(ctx context.Context, asset string) (float64, error) {
	return 0, nil
}
func (fakeExchangeClient) ChangeLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}
func (fakeExchangeClient) ChangeMarginType(ctx context.Context, symbol string, isolated bool) error {
	return nil
}
func (fakeExchangeClient) CreateOrder(ctx context.Context, req exchange.OrderRequest) (*futures.CreateOrderResponse, error) {
	return nil, nil
}
func (fakeExchangeClient) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	return nil
}
func (fakeExchangeClient) GetOpenOrders(ctx context.Context, symbol string) ([]*futures.Order, error) {
	return nil, nil
}
func (fakeExchangeClient) GetAllOpenOrders(ctx context.Context) ([]*futures.Order, error) {
	return nil, nil
}
func (fakeExchangeClient) StartUserStream(ctx context.Context) (string, error) { return "key", nil }
func (fakeExchangeClient) KeepaliveUserStream(ctx context.Context, listenKey string) error {
	return nil
}

func TestUserStream_DispatchInvokesHandlerOnValidEvent(t *testing.T) {
	u := NewUserStream(fakeExchangeClient{})
	var got UserEvent
	u.Handler = func(ev UserEvent) { got = ev }

	u.dispatch([]byte(`{"e":"ORDER_TRADE_UPDATE","o":{"s":"BTCUSDT","c":"trgt-abc","i":1,"X":"FILLED","S":"SELL","z":"0.01","ap":"51000"}}`))

	require.NotNil(t, got.Order)
	assert.Equal(t, "ORDER_TRADE_UPDATE", got.Type)
	assert.Equal(t, "BTCUSDT", got.Order.Symbol)
	assert.Equal(t, "trgt-abc", got.Order.ClientOrderID)
	assert.Equal(t, "FILLED", got.Order.Status)
}

func TestUserStream_DispatchIgnoresMalformedPayload(t *testing.T) {
	u := NewUserStream(fakeExchangeClient{})
	called := false
	u.Handler = func(ev UserEvent) { called = true }

	u.dispatch([]byte(`not json`))
	assert.False(t, called)
}
