// Package trader turns ranked opportunities into orders, enforces the risk
// gates, and settles finished positions back into P&L and provider
// accuracy.
package trader

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
)

// Position is one open contract holding.
type Position struct {
	Ticker      string    `json:"ticker"`
	EventTicker string    `json:"event_ticker"`
	City        string    `json:"city"`
	Side        rest.Side `json:"side"`
	PriceCents  int       `json:"price"`
	Count       int       `json:"count"`
	CostCents   int       `json:"cost"`
	TradeTime   string    `json:"trade_time"` // RFC3339
	TargetDate  string    `json:"target_date,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	Paper       bool      `json:"paper"`

	// Forecasts snapshots the per-provider predictions at trade time, in
	// °F after bias correction. Settlement grades each provider against
	// the observed high.
	Forecasts map[string]float64 `json:"forecasts,omitempty"`
}

// State is the daemon's persistent book: open positions, realized P&L by
// day and week, trade counts, and the simulated paper balance. All methods
// are safe for concurrent use; mutations save to disk before returning.
type State struct {
	mu   sync.Mutex
	path string

	data stateData
}

// PnLBucket aggregates realized results for one ledger period.
type PnLBucket struct {
	PnLCents int `json:"pnl_cents"`
	Trades   int `json:"trades"`
	Wins     int `json:"wins"`
	Losses   int `json:"losses"`
}

type stateData struct {
	Positions         []Position            `json:"positions"`
	DailyPnL          map[string]*PnLBucket `json:"daily_pnl"`    // keyed "2006-01-02"
	WeeklyPnL         map[string]*PnLBucket `json:"weekly_pnl"`   // keyed "2006-W02"
	DailyTrades       map[string]int        `json:"daily_trades"` // "2006-01-02" -> count
	TotalPnLCents     int                   `json:"total_pnl_cents"`
	PaperBalanceCents int                   `json:"paper_balance"`
	LastBreakerAlert  time.Time             `json:"last_breaker_alert,omitempty"`
}

// DefaultPaperBalance seeds a fresh paper book, in cents.
const DefaultPaperBalance = 10000

// LoadState reads the state file, creating a fresh book if it does not
// exist. A corrupt file is an error, never silently reset.
func LoadState(path string) (*State, error) {
	s := &State{
		path: path,
		data: stateData{
			DailyPnL:          make(map[string]*PnLBucket),
			WeeklyPnL:         make(map[string]*PnLBucket),
			DailyTrades:       make(map[string]int),
			PaperBalanceCents: DefaultPaperBalance,
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("trader: read state: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("trader: parse state %s: %w", path, err)
	}
	if s.data.DailyPnL == nil {
		s.data.DailyPnL = make(map[string]*PnLBucket)
	}
	if s.data.WeeklyPnL == nil {
		s.data.WeeklyPnL = make(map[string]*PnLBucket)
	}
	if s.data.DailyTrades == nil {
		s.data.DailyTrades = make(map[string]int)
	}
	return s, nil
}

// DayKey formats t as a daily ledger key.
func DayKey(t time.Time) string { return t.Format("2006-01-02") }

// WeekKey formats t as a weekly ledger key using the ISO week number.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Positions returns a copy of the open positions.
func (s *State) Positions() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Position, len(s.data.Positions))
	copy(out, s.data.Positions)
	return out
}

// OpenCount returns the number of open positions.
func (s *State) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Positions)
}

// TradesToday returns the number of trades placed on the given day.
func (s *State) TradesToday(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DailyTrades[DayKey(now)]
}

// PaperBalance returns the simulated balance in cents.
func (s *State) PaperBalance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PaperBalanceCents
}

// DailyPnL returns realized P&L in cents for the given day.
func (s *State) DailyPnL(now time.Time) int {
	return s.DailyRecord(now).PnLCents
}

// WeeklyPnL returns realized P&L in cents for the given week.
func (s *State) WeeklyPnL(now time.Time) int {
	return s.WeeklyRecord(now).PnLCents
}

// DailyRecord returns the full ledger bucket for the given day.
func (s *State) DailyRecord(now time.Time) PnLBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.data.DailyPnL[DayKey(now)]; b != nil {
		return *b
	}
	return PnLBucket{}
}

// WeeklyRecord returns the full ledger bucket for the given week.
func (s *State) WeeklyRecord(now time.Time) PnLBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.data.WeeklyPnL[WeekKey(now)]; b != nil {
		return *b
	}
	return PnLBucket{}
}

// TotalPnL returns lifetime realized P&L in cents.
func (s *State) TotalPnL() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.TotalPnLCents
}

// AddPosition records a filled trade: the position opens, the day's trade
// counter increments, and a paper fill debits the simulated balance.
func (s *State) AddPosition(p Position, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Positions = append(s.data.Positions, p)
	s.data.DailyTrades[DayKey(now)]++
	if p.Paper {
		s.data.PaperBalanceCents -= p.CostCents
	}
	return s.saveLocked()
}

// ClosePosition removes the position at ticker and books its realized P&L
// into the daily and weekly ledgers for now. A paper position credits the
// simulated balance with cost plus P&L.
func (s *State) ClosePosition(ticker string, pnlCents int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.data.Positions {
		if s.data.Positions[i].Ticker == ticker {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("trader: no open position for %s", ticker)
	}

	p := s.data.Positions[idx]
	s.data.Positions = append(s.data.Positions[:idx], s.data.Positions[idx+1:]...)

	bookPnL(s.data.DailyPnL, DayKey(now), pnlCents)
	bookPnL(s.data.WeeklyPnL, WeekKey(now), pnlCents)
	s.data.TotalPnLCents += pnlCents
	if p.Paper {
		s.data.PaperBalanceCents += p.CostCents + pnlCents
	}
	return s.saveLocked()
}

// bookPnL folds one settlement into a ledger bucket. Zero counts as a
// loss.
func bookPnL(m map[string]*PnLBucket, key string, pnlCents int) {
	b := m[key]
	if b == nil {
		b = &PnLBucket{}
		m[key] = b
	}
	b.PnLCents += pnlCents
	b.Trades++
	if pnlCents > 0 {
		b.Wins++
	} else {
		b.Losses++
	}
}

// LastBreakerAlert returns when the circuit breaker last alerted.
func (s *State) LastBreakerAlert() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastBreakerAlert
}

// SetLastBreakerAlert records a breaker alert time.
func (s *State) SetLastBreakerAlert(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LastBreakerAlert = t
	return s.saveLocked()
}

// Save flushes the current book to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *State) saveLocked() error {
	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("trader: encode state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("trader: write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("trader: replace state: %w", err)
	}
	return nil
}
