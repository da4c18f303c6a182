package rest

import (
	"encoding/json"
	"fmt"
)

// StrikeType describes the strike geometry of a temperature market.
type StrikeType string

const (
	StrikeLess    StrikeType = "less"
	StrikeGreater StrikeType = "greater"
	StrikeBetween StrikeType = "between"
)

// Valid reports whether the strike type is one Kalshi actually uses for
// temperature markets.
func (s StrikeType) Valid() bool {
	switch s {
	case StrikeLess, StrikeGreater, StrikeBetween:
		return true
	}
	return false
}

// Market represents a Kalshi market.
//
// FloorStrike and CapStrike are pointers because threshold markets carry
// only one of the two.
type Market struct {
	Ticker      string     `json:"ticker"`
	EventTicker string     `json:"event_ticker"`
	MarketType  string     `json:"market_type"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	YesBid      int        `json:"yes_bid"`
	YesAsk      int        `json:"yes_ask"`
	NoBid       int        `json:"no_bid"`
	NoAsk       int        `json:"no_ask"`
	LastPrice   int        `json:"last_price"`
	Volume      int        `json:"volume"`
	Liquidity   int        `json:"liquidity"`
	Result      string     `json:"result"`
	StrikeType  StrikeType `json:"strike_type"`
	FloorStrike *float64   `json:"floor_strike,omitempty"`
	CapStrike   *float64   `json:"cap_strike,omitempty"`
	CloseTime   string     `json:"close_time"`
	OpenTime    string     `json:"open_time"`
}

// Event represents a Kalshi event. With nested markets requested, Markets
// holds every market under the event.
type Event struct {
	EventTicker  string   `json:"event_ticker"`
	SeriesTicker string   `json:"series_ticker"`
	Title        string   `json:"title"`
	SubTitle     string   `json:"sub_title"`
	StrikeDate   string   `json:"strike_date"`
	Markets      []Market `json:"markets"`
}

// GetEventsResponse represents a response from listing events.
type GetEventsResponse struct {
	Events []Event `json:"events"`
	Cursor string  `json:"cursor"`
}

// EventPosition represents portfolio exposure aggregated per event.
type EventPosition struct {
	EventTicker   string `json:"event_ticker"`
	EventExposure int    `json:"event_exposure"`
	RealizedPnl   int    `json:"realized_pnl"`
	TotalCost     int    `json:"total_cost"`
}

// GetPositionsResponse represents a response from getting positions.
type GetPositionsResponse struct {
	EventPositions []EventPosition `json:"event_positions"`
	Cursor         string          `json:"cursor"`
}

// Balance represents account balance.
type Balance struct {
	Balance         int `json:"balance"`         // Available balance in cents
	PortfolioValue  int `json:"portfolio_value"` // Value of all positions in cents
	PayoutAvailable int `json:"payout_available"`
}

// GetOpenEvents retrieves open events for a series, with nested markets.
func (c *Client) GetOpenEvents(seriesTicker string) ([]Event, error) {
	path := fmt.Sprintf(
		"/events?series_ticker=%s&status=open&with_nested_markets=true&limit=5",
		seriesTicker,
	)
	data, err := c.Get(path)
	if err != nil {
		return nil, err
	}

	var resp GetEventsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp.Events, nil
}

// GetMarket retrieves a single market by ticker.
func (c *Client) GetMarket(ticker string) (*Market, error) {
	data, err := c.Get(fmt.Sprintf("/markets/%s", ticker))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Market Market `json:"market"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp.Market, nil
}

// GetEventPositions retrieves per-event portfolio exposure.
func (c *Client) GetEventPositions() ([]EventPosition, error) {
	data, err := c.Get("/portfolio/positions")
	if err != nil {
		return nil, err
	}

	var resp GetPositionsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp.EventPositions, nil
}

// GetBalance retrieves account balance.
func (c *Client) GetBalance() (*Balance, error) {
	data, err := c.Get("/portfolio/balance")
	if err != nil {
		return nil, err
	}

	var resp Balance
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}
