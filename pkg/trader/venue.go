package trader

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

// Venue is where orders go. The live venue hits the exchange; the paper
// venue simulates fills against the quoted price.
type Venue interface {
	// Name identifies the venue in logs ("live" or "paper").
	Name() string

	// BalanceCents returns the bankroll available for sizing.
	BalanceCents() (int, error)

	// OpenPositions reports the event tickers with live exposure at the
	// venue and how many open positions it holds. Paper fills never reach
	// the exchange, so the paper venue answers from the shared state.
	OpenPositions() (map[string]bool, int, error)

	// PlaceBuy submits a limit buy and returns the venue's order ID.
	PlaceBuy(ticker string, side rest.Side, count, priceCents int) (string, error)
}

// LiveVenue places real orders through the exchange client.
type LiveVenue struct {
	client *rest.Client
}

// NewLiveVenue wraps the exchange client.
func NewLiveVenue(client *rest.Client) *LiveVenue {
	return &LiveVenue{client: client}
}

func (v *LiveVenue) Name() string { return "live" }

func (v *LiveVenue) BalanceCents() (int, error) {
	bal, err := v.client.GetBalance()
	if err != nil {
		return 0, err
	}
	return bal.Balance, nil
}

func (v *LiveVenue) OpenPositions() (map[string]bool, int, error) {
	positions, err := v.client.GetEventPositions()
	if err != nil {
		return nil, 0, err
	}
	events := make(map[string]bool)
	for _, ep := range positions {
		if ep.EventExposure > 0 && ep.EventTicker != "" {
			events[ep.EventTicker] = true
		}
	}
	return events, len(events), nil
}

func (v *LiveVenue) PlaceBuy(ticker string, side rest.Side, count, priceCents int) (string, error) {
	order, err := v.client.BuyLimit(ticker, side, count, priceCents)
	if err != nil {
		return "", err
	}
	return order.OrderID, nil
}

// PaperVenue simulates fills. Every order fills immediately and completely
// at the quoted price; the balance lives in the shared state so it
// survives restarts.
type PaperVenue struct {
	state *State
	log   zerolog.Logger
	now   func() time.Time
}

// NewPaperVenue builds a paper venue over the shared state.
func NewPaperVenue(state *State, log zerolog.Logger) *PaperVenue {
	return &PaperVenue{state: state, log: log, now: time.Now}
}

func (v *PaperVenue) Name() string { return "paper" }

func (v *PaperVenue) BalanceCents() (int, error) {
	return v.state.PaperBalance(), nil
}

func (v *PaperVenue) OpenPositions() (map[string]bool, int, error) {
	positions := v.state.Positions()
	events := make(map[string]bool)
	for _, p := range positions {
		if p.EventTicker != "" {
			events[p.EventTicker] = true
		}
	}
	return events, len(positions), nil
}

func (v *PaperVenue) PlaceBuy(ticker string, side rest.Side, count, priceCents int) (string, error) {
	id := fmt.Sprintf("paper-%s-%d", ticker, v.now().UnixNano())
	v.log.Info().Str("ticker", ticker).Str("side", string(side)).
		Int("count", count).Int("price", priceCents).Str("order_id", id).
		Msg("paper fill")
	return id, nil
}
