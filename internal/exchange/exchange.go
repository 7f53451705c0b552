// Package exchange wraps the go-binance futures REST client behind a
// narrow interface the engine can fake in tests.
package exchange

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
)

// SymbolProfile is the precision data the lifecycle engine needs to
// round prices and quantities before submitting an order.
type SymbolProfile struct {
	TickSize float64
	StepSize float64
}

// Client is the exchange-facing seam the engine depends on. The concrete
// implementation wraps *futures.Client; tests supply a fake.
type Client interface {
	ExchangeInfo(ctx context.Context) (map[string]SymbolProfile, error)
	AvailableBalance(ctx context.Context, asset string) (float64, error)
	ChangeLeverage(ctx context.Context, symbol string, leverage int) error
	ChangeMarginType(ctx context.Context, symbol string, isolated bool) error
	CreateOrder(ctx context.Context, req OrderRequest) (*futures.CreateOrderResponse, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	GetOpenOrders(ctx context.Context, symbol string) ([]*futures.Order, error)
	GetAllOpenOrders(ctx context.Context) ([]*futures.Order, error)
	StartUserStream(ctx context.Context) (string, error)
	KeepaliveUserStream(ctx context.Context, listenKey string) error
}

// OrderRequest is the subset of futures.CreateOrderService fields the
// engine actually populates; Side/Type/TimeInForce are passed through as
// the go-binance enums so callers never juggle raw strings.
type OrderRequest struct {
	Symbol        string
	Side          futures.SideType
	Type          futures.OrderType
	TimeInForce   futures.TimeInForceType
	Price         string
	StopPrice     string
	Quantity      string
	ClosePosition bool
	ReduceOnly    bool
	ClientOrderID string
	WorkingType   futures.WorkingType
}

type binanceClient struct {
	raw *futures.Client
}

// New wraps a *futures.Client obtained from binance.NewFuturesClient,
// switching to the testnet base URL first when useTestnet is set, the
// same toggle the teacher repo flips on futures.UseTestnet.
func New(apiKey, apiSecret string, useTestnet bool) Client {
	if useTestnet {
		futures.UseTestnet = true
	}
	return &binanceClient{raw: binance.NewFuturesClient(apiKey, apiSecret)}
}

func (c *binanceClient) ExchangeInfo(ctx context.Context) (map[string]SymbolProfile, error) {
	info, err := c.raw.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]SymbolProfile, len(info.Symbols))
	for _, s := range info.Symbols {
		profile := SymbolProfile{TickSize: 0.01, StepSize: 0.001}
		for _, f := range s.Filters {
			switch f["filterType"] {
			case "PRICE_FILTER":
				if v, ok := f["tickSize"].(string); ok {
					if parsed, err := strconv.ParseFloat(v, 64); err == nil {
						profile.TickSize = parsed
					}
				}
			case "LOT_SIZE":
				if v, ok := f["stepSize"].(string); ok {
					if parsed, err := strconv.ParseFloat(v, 64); err == nil {
						profile.StepSize = parsed
					}
				}
			}
		}
		out[s.Symbol] = profile
	}
	return out, nil
}

func (c *binanceClient) AvailableBalance(ctx context.Context, asset string) (float64, error) {
	res, err := c.raw.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range res.Assets {
		if b.Asset == asset {
			return strconv.ParseFloat(b.AvailableBalance, 64)
		}
	}
	return 0, nil
}

func (c *binanceClient) ChangeLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := c.raw.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	return err
}

func (c *binanceClient) ChangeMarginType(ctx context.Context, symbol string, isolated bool) error {
	mt := futures.MarginTypeCrossed
	if isolated {
		mt = futures.MarginTypeIsolated
	}
	return c.raw.NewChangeMarginTypeService().Symbol(symbol).MarginType(mt).Do(ctx)
}

func (c *binanceClient) CreateOrder(ctx context.Context, req OrderRequest) (*futures.CreateOrderResponse, error) {
	svc := c.raw.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(req.Side).
		Type(req.Type).
		Quantity(req.Quantity)
	if req.TimeInForce != "" {
		svc = svc.TimeInForce(req.TimeInForce)
	}
	if req.Price != "" {
		svc = svc.Price(req.Price)
	}
	if req.StopPrice != "" {
		svc = svc.StopPrice(req.StopPrice)
	}
	if req.ClosePosition {
		svc = svc.ClosePosition(req.ClosePosition)
	}
	if req.ReduceOnly {
		svc = svc.ReduceOnly(req.ReduceOnly)
	}
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}
	if req.WorkingType != "" {
		svc = svc.WorkingType(req.WorkingType)
	}
	return svc.Do(ctx)
}

func (c *binanceClient) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	_, err := c.raw.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	return err
}

func (c *binanceClient) GetOpenOrders(ctx context.Context, symbol string) ([]*futures.Order, error) {
	return c.raw.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
}

// GetAllOpenOrders fetches the account's full open-order set across every
// symbol in one call, the reconciler's ground truth for orphan repair.
func (c *binanceClient) GetAllOpenOrders(ctx context.Context) ([]*futures.Order, error) {
	return c.raw.NewListOpenOrdersService().Do(ctx)
}

func (c *binanceClient) StartUserStream(ctx context.Context) (string, error) {
	return c.raw.NewStartUserStreamService().Do(ctx)
}

func (c *binanceClient) KeepaliveUserStream(ctx context.Context, listenKey string) error {
	return c.raw.NewKeepaliveUserStreamService().ListenKey(listenKey).Do(ctx)
}
