package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalcore/internal/exchange"
	"signalcore/internal/signal"
	"signalcore/internal/stream"
)

// fakeClient is an in-memory exchange.Client for lifecycle tests.
type fakeClient struct {
	mu          sync.Mutex
	nextOrderID int64
	balance     float64
	profiles    map[string]exchange.SymbolProfile
	created     []exchange.OrderRequest
	cancelled   []int64
	open        map[int64]exchange.OrderRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balance: 1000,
		profiles: map[string]exchange.SymbolProfile{
			"BTCUSDT": {TickSize: 0.1, StepSize: 0.001},
		},
		open: make(map[int64]exchange.OrderRequest),
	}
}

func (f *fakeClient) ExchangeInfo(ctx context.Context) (map[string]exchange.SymbolProfile, error) {
	return f.profiles, nil
}
func (f *fakeClient) AvailableBalance(ctx context.Context, asset string) (float64, error) {
	return f.balance, nil
}
func (f *fakeClient) ChangeLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}
func (f *fakeClient) ChangeMarginType(ctx context.Context, symbol string, isolated bool) error {
	return nil
}
func (f *fakeClient) CreateOrder(ctx context.Context, req exchange.OrderRequest) (*futures.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOrderID++
	id := f.nextOrderID
	f.open[id] = req
	f.created = append(f.created, req)
	return &futures.CreateOrderResponse{OrderID: id}, nil
}
func (f *fakeClient) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, orderID)
	f.cancelled = append(f.cancelled, orderID)
	return nil
}
func (f *fakeClient) GetOpenOrders(ctx context.Context, symbol string) ([]*futures.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*futures.Order, 0, len(f.open))
	for id, req := range f.open {
		if symbol != "" && req.Symbol != symbol {
			continue
		}
		out = append(out, &futures.Order{OrderID: id, Symbol: req.Symbol, ClientOrderID: req.ClientOrderID})
	}
	return out, nil
}
func (f *fakeClient) GetAllOpenOrders(ctx context.Context) ([]*futures.Order, error) {
	return f.GetOpenOrders(ctx, "")
}

// seedOpenOrder injects an exchange-side open order the test didn't create
// through CreateOrder, e.g. a child surviving a crashed parent.
func (f *fakeClient) seedOpenOrder(orderID int64, symbol, clientOrderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[orderID] = exchange.OrderRequest{Symbol: symbol, ClientOrderID: clientOrderID}
}
func (f *fakeClient) StartUserStream(ctx context.Context) (string, error) { return "fake-key", nil }
func (f *fakeClient) KeepaliveUserStream(ctx context.Context, listenKey string) error {
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	prices := stream.NewPriceManager()
	e := New(client, prices, nil, nil)
	require.NoError(t, e.LoadExchangeInfo(context.Background()))
	return e, client
}

func TestPlaceOrder_DuplicateGuard(t *testing.T) {
	e, client := newTestEngine(t)
	e.prices.Subscribe("BTCUSDT")
	_ = client

	s := &signal.Signal{
		Tag: "BTC", Coin: "BTC", Side: signal.Long,
		Entries: []float64{50000}, Targets: []float64{51000}, StopLoss: 49000,
	}
	// A market-type parent (IsWaitEntry false) blocks any new entry for the
	// same symbol regardless of its client order id.
	existing := &Order{ClientOrderID: "mrkt-existing", Tag: "BTC", Symbol: "BTCUSDT"}
	e.orders[existing.ClientOrderID] = existing

	err := e.placeOrder(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestPlaceOrder_WaitEntryParentWithoutStopLossIsNotADuplicate(t *testing.T) {
	e, _ := newTestEngine(t)
	e.prices.Subscribe("BTCUSDT")
	e.prices.SetPrice("BTCUSDT", 49500)

	// A resting wait-entry parent with no stop-loss child yet hasn't filled,
	// so it must not block a second signal on the same symbol.
	waiting := &Order{ClientOrderID: "wait-existing", Tag: "OTHER", Symbol: "BTCUSDT", IsWaitEntry: true}
	e.orders[waiting.ClientOrderID] = waiting

	s := &signal.Signal{
		Tag: "BTC", Coin: "BTC", Side: signal.Long, ForceLimitOrder: true,
		Entries: []float64{50000}, Targets: []float64{52000}, StopLoss: 49000,
	}
	require.NoError(t, e.placeOrder(context.Background(), s))
}

// The entry-crossed guard fires whether or not the signal asked for a
// resting (ForceLimitOrder) entry — it is checked unconditionally against
// max_entry, the far end of the entry ladder.
func TestPlaceOrder_EntryCrossedMaxEntryErrorsRegardlessOfForceLimitOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	e.prices.Subscribe("BTCUSDT")
	// Seed the live price directly; the price manager only exposes it via
	// its websocket read path otherwise.
	e.prices.SetPrice("BTCUSDT", 51000)

	s := &signal.Signal{
		Tag: "BTC", Coin: "BTC", Side: signal.Long, ForceLimitOrder: false,
		Entries: []float64{50000}, Targets: []float64{52000}, StopLoss: 49000,
	}
	err := e.placeOrder(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry crossed")
}

func TestPlaceOrder_WaitEntryWhenNotCrossed(t *testing.T) {
	e, client := newTestEngine(t)
	e.prices.Subscribe("BTCUSDT")
	e.prices.SetPrice("BTCUSDT", 49500)

	s := &signal.Signal{
		Tag: "BTC", Coin: "BTC", Side: signal.Long, ForceLimitOrder: true,
		Entries: []float64{50000}, Targets: []float64{52000}, StopLoss: 49000,
	}
	require.NoError(t, e.placeOrder(context.Background(), s))

	e.olock.Lock()
	order := e.orderByTag("BTC")
	e.olock.Unlock()
	require.NotNil(t, order)
	assert.True(t, order.IsWaitEntry)
	last := client.created[len(client.created)-1]
	assert.Equal(t, "BUY", string(last.Side))
	assert.Equal(t, futures.OrderTypeStop, last.Type)
}

func TestPlaceOrder_MarketEntryWhenNotForceLimit(t *testing.T) {
	e, client := newTestEngine(t)
	e.prices.Subscribe("BTCUSDT")
	e.prices.SetPrice("BTCUSDT", 49500)

	// Without ForceLimitOrder the entry always goes to MARKET, even though
	// price hasn't reached the near entry yet.
	s := &signal.Signal{
		Tag: "BTC", Coin: "BTC", Side: signal.Long,
		Entries: []float64{50000}, Targets: []float64{52000}, StopLoss: 49000,
	}
	require.NoError(t, e.placeOrder(context.Background(), s))

	e.olock.Lock()
	order := e.orderByTag("BTC")
	e.olock.Unlock()
	require.NotNil(t, order)
	assert.False(t, order.IsWaitEntry)
	// The entry is the first request; the bracket built right after it
	// follows.
	entry := client.created[0]
	assert.Equal(t, futures.OrderTypeMarket, entry.Type)
}

func TestPlaceCollectionOrders_BracketSizing(t *testing.T) {
	e, client := newTestEngine(t)
	order := &Order{Tag: "BTC", Symbol: "BTCUSDT", Side: "LONG", EntryPrice: 50000, Qty: 0.16}
	s := &signal.Signal{
		Side: signal.Long, StopLoss: 49000,
		Targets: []float64{51000, 52000, 53000, 54000, 55000, 56000},
	}
	require.NoError(t, e.placeCollectionOrders(context.Background(), order, s))

	targets := order.TargetChildren()
	require.Len(t, targets, MaxTargets)
	require.NotNil(t, order.StopLossChild())

	// Each target halves remaining qty except the last, which closes the
	// position outright instead of carrying a fixed quantity.
	last := targets[len(targets)-1]
	lastCreated := findRequestByClientOrderID(client.created, last.ClientOrderID)
	require.NotNil(t, lastCreated)
	assert.True(t, lastCreated.ClosePosition)

	first := targets[0]
	firstCreated := findRequestByClientOrderID(client.created, first.ClientOrderID)
	require.NotNil(t, firstCreated)
	assert.Equal(t, "0.08", firstCreated.Quantity)
}

func findRequestByClientOrderID(reqs []exchange.OrderRequest, id string) *exchange.OrderRequest {
	for i := range reqs {
		if reqs[i].ClientOrderID == id {
			return &reqs[i]
		}
	}
	return nil
}

func TestHandleEvent_BreakEvenPromotionOnFirstTarget(t *testing.T) {
	e, client := newTestEngine(t)
	order := &Order{Tag: "BTC", Symbol: "BTCUSDT", Side: "LONG", EntryPrice: 50000, Qty: 0.16}
	order.Children = []*ChildOrder{
		{OrderID: 1, ClientOrderID: "stop-aaa", Role: RoleStopLoss, Price: 49000},
		{OrderID: 2, ClientOrderID: "trgt-aaa", Role: RoleTarget, Price: 51000},
		{OrderID: 3, ClientOrderID: "trgt-bbb", Role: RoleTarget, Price: 52000},
	}
	e.orders["BTC"] = order

	before := len(client.cancelled)
	e.HandleEvent(context.Background(), stream.UserEvent{Order: &struct {
		Symbol        string `json:"s"`
		ClientOrderID string `json:"c"`
		OrderID       int64  `json:"i"`
		Status        string `json:"X"`
		Side          string `json:"S"`
		FilledQty     string `json:"z"`
		AvgPrice      string `json:"ap"`
	}{Symbol: "BTCUSDT", ClientOrderID: "trgt-aaa", Status: "FILLED"}})

	// Old stop cancelled, new one placed, order still live (second target unfilled).
	assert.Greater(t, len(client.cancelled), before)
	_, stillLive := e.orders["BTC"]
	assert.True(t, stillLive)
	assert.NotNil(t, order.StopLossChild())
}

func TestHandleEvent_LastTargetFillTearsDownBracket(t *testing.T) {
	e, _ := newTestEngine(t)
	order := &Order{ClientOrderID: "mrkt-btc", Tag: "BTC", Symbol: "BTCUSDT", Side: "LONG", EntryPrice: 50000, Qty: 0.16}
	order.Children = []*ChildOrder{
		{OrderID: 1, ClientOrderID: "stop-aaa", Role: RoleStopLoss, Price: 49000},
		{OrderID: 2, ClientOrderID: "trgt-aaa", Role: RoleTarget, Price: 51000, Filled: true},
	}
	e.orders[order.ClientOrderID] = order

	e.HandleEvent(context.Background(), stream.UserEvent{Order: &struct {
		Symbol        string `json:"s"`
		ClientOrderID string `json:"c"`
		OrderID       int64  `json:"i"`
		Status        string `json:"X"`
		Side          string `json:"S"`
		FilledQty     string `json:"z"`
		AvgPrice      string `json:"ap"`
	}{Symbol: "BTCUSDT", ClientOrderID: "trgt-aaa", Status: "FILLED"}})

	_, stillLive := e.orders[order.ClientOrderID]
	assert.False(t, stillLive)
}

func TestCloseTrades_IteratesKeyValuePairsCorrectly(t *testing.T) {
	e, _ := newTestEngine(t)
	e.orders["mrkt-btc"] = &Order{ClientOrderID: "mrkt-btc", Tag: "BTC", Symbol: "BTCUSDT", Side: "LONG"}
	e.orders["mrkt-eth"] = &Order{ClientOrderID: "mrkt-eth", Tag: "ETH", Symbol: "ETHUSDT", Side: "SHORT"}

	require.NoError(t, e.CloseTrades(context.Background(), "BTC", ""))
	_, btcLive := e.orders["mrkt-btc"]
	_, ethLive := e.orders["mrkt-eth"]
	assert.False(t, btcLive)
	assert.True(t, ethLive)
}

func TestClientOrderID_Prefixes(t *testing.T) {
	id := newClientOrderID(prefixTarget)
	assert.True(t, isTargetOrderID(id))
	assert.Len(t, id, 36)
}
