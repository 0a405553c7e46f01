// Package broker wraps the alpaca paper-trading API. The simulator's ledger
// is authoritative; the broker only mirrors executed trades so a live run
// leaves an auditable paper account behind, and feeds reconciliation.
package broker

import (
	"context"
	"math"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type OrderRef struct {
	ID            string
	ClientOrderID string
	Status        string
}

type Position struct {
	Symbol   string
	Qty      float64
	AvgEntry float64
}

type Account struct {
	Equity      float64
	BuyingPower float64
}

type Client struct {
	client *alpaca.Client
	log    logrus.FieldLogger
}

func New(apiKey, apiSecret, baseURL string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{client: alpaca.NewClient(opts), log: log.WithField("component", "broker")}
}

// MirrorOrder submits a market order matching one executed simulator trade:
// positive qty buys, negative sells. clientOrderID ties the paper order back
// to the run.
func (c *Client) MirrorOrder(ctx context.Context, symbol string, qty float64, clientOrderID string) (OrderRef, error) {
	side := alpaca.Buy
	if qty < 0 {
		side = alpaca.Sell
	}
	amount := decimal.NewFromFloat(math.Abs(qty))
	req := alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &amount,
		Side:          side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: clientOrderID,
	}

	order, err := c.client.PlaceOrder(req)
	if err != nil {
		c.log.Errorf("mirror order failed: symbol=%s qty=%v: %v", symbol, qty, err)
		return OrderRef{}, err
	}
	c.log.Infof("mirror order placed: symbol=%s qty=%v order_id=%s status=%s", symbol, qty, order.ID, order.Status)
	return OrderRef{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
	}, nil
}

func (c *Client) Position(ctx context.Context, symbol string) (Position, error) {
	pos, err := c.client.GetPosition(symbol)
	if err != nil {
		return Position{}, err
	}
	qty, _ := pos.Qty.Float64()
	avgEntry, _ := pos.AvgEntryPrice.Float64()
	return Position{Symbol: pos.Symbol, Qty: qty, AvgEntry: avgEntry}, nil
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		return Account{}, err
	}
	equity, _ := acct.Equity.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()
	return Account{Equity: equity, BuyingPower: buyingPower}, nil
}
