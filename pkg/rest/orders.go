package rest

import (
	"encoding/json"
	"fmt"
)

// Side represents the order side.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// OrderType represents the order type.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderAction represents the order action.
type OrderAction string

const (
	OrderActionBuy  OrderAction = "buy"
	OrderActionSell OrderAction = "sell"
)

// CreateOrderRequest represents a request to create an order.
type CreateOrderRequest struct {
	Ticker        string      `json:"ticker"`
	Action        OrderAction `json:"action"`
	Side          Side        `json:"side"`
	Type          OrderType   `json:"type"`
	Count         int         `json:"count"`
	YesPrice      int         `json:"yes_price,omitempty"` // In cents (1-99)
	NoPrice       int         `json:"no_price,omitempty"`  // In cents (1-99)
	ClientOrderID string      `json:"client_order_id,omitempty"`
}

// Order represents an order.
type Order struct {
	OrderID        string      `json:"order_id"`
	Ticker         string      `json:"ticker"`
	Action         OrderAction `json:"action"`
	Side           Side        `json:"side"`
	Type           OrderType   `json:"type"`
	Status         string      `json:"status"`
	YesPrice       int         `json:"yes_price"`
	NoPrice        int         `json:"no_price"`
	CreatedTime    string      `json:"created_time"`
	TakerFillCount int         `json:"taker_fill_count"`
	RemainingCount int         `json:"remaining_count"`
}

// CreateOrderResponse represents a response from creating an order.
type CreateOrderResponse struct {
	Order Order `json:"order"`
}

// CreateOrder places a new order.
func (c *Client) CreateOrder(req *CreateOrderRequest) (*Order, error) {
	data, err := c.Post("/portfolio/orders", req)
	if err != nil {
		return nil, err
	}

	var resp CreateOrderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp.Order, nil
}

// BuyLimit places a limit buy for count contracts at priceCents on the
// given side.
func (c *Client) BuyLimit(ticker string, side Side, count, priceCents int) (*Order, error) {
	req := &CreateOrderRequest{
		Ticker: ticker,
		Action: OrderActionBuy,
		Side:   side,
		Type:   OrderTypeLimit,
		Count:  count,
	}
	if side == SideYes {
		req.YesPrice = priceCents
	} else {
		req.NoPrice = priceCents
	}
	return c.CreateOrder(req)
}
