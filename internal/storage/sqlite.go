// Package storage persists scan telemetry, placed trades, and settlements
// in SQLite. The scans table doubles as the backtest dataset: every market
// the scanner evaluated, with the filter outcome.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/strategy"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/trader"
)

// Store is the SQLite-backed record store.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore opens (or creates) the database under dataDir and migrates the
// schema.
func NewStore(dataDir string, log zerolog.Logger) (*Store, error) {
	dbPath := filepath.Join(dataDir, "weatherbot.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// WAL keeps readers (status command) from blocking the daemon.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("storage: enable WAL: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("record store ready")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		ticker TEXT NOT NULL,
		city TEXT NOT NULL,
		forecast REAL NOT NULL,
		confidence REAL NOT NULL,
		yes_ask INTEGER NOT NULL,
		yes_bid INTEGER NOT NULL,
		floor_strike REAL,
		cap_strike REAL,
		strike_type TEXT NOT NULL,
		side TEXT,
		price INTEGER,
		model_fair INTEGER,
		blended_fair INTEGER,
		raw_edge REAL,
		adjusted_edge REAL,
		action TEXT NOT NULL,
		skip_reason TEXT,
		days_ahead INTEGER NOT NULL,
		std_dev_used REAL NOT NULL,
		provider_spread REAL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(ts);
	CREATE INDEX IF NOT EXISTS idx_scans_ticker ON scans(ticker);
	CREATE INDEX IF NOT EXISTS idx_scans_action ON scans(action);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		ticker TEXT NOT NULL,
		event_ticker TEXT NOT NULL,
		city TEXT NOT NULL,
		side TEXT NOT NULL,
		price INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		cost INTEGER NOT NULL,
		order_id TEXT,
		target_date TEXT,
		paper INTEGER NOT NULL,
		forecasts TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);
	CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);

	CREATE TABLE IF NOT EXISTS settlements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		settled_at DATETIME NOT NULL,
		ticker TEXT NOT NULL,
		city TEXT NOT NULL,
		side TEXT NOT NULL,
		price INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		cost INTEGER NOT NULL,
		result TEXT NOT NULL,
		won INTEGER NOT NULL,
		pnl INTEGER NOT NULL,
		paper INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_settlements_at ON settlements(settled_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordScan implements strategy.Recorder. Write failures are logged, not
// returned; telemetry must never fail a scan.
func (s *Store) RecordScan(rec *strategy.Record) {
	_, err := s.db.Exec(`
		INSERT INTO scans (ts, ticker, city, forecast, confidence, yes_ask, yes_bid,
			floor_strike, cap_strike, strike_type, side, price, model_fair, blended_fair,
			raw_edge, adjusted_edge, action, skip_reason, days_ahead, std_dev_used, provider_spread)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Ts, rec.Ticker, rec.City, rec.ForecastF, rec.Confidence, rec.YesAsk, rec.YesBid,
		rec.Floor, rec.Cap, rec.StrikeType, nullStr(rec.Side), rec.PriceCents,
		rec.ModelFair, rec.BlendedFair, rec.RawEdge, rec.AdjustedEdge,
		rec.Action, nullStr(rec.SkipReason), rec.DaysAhead, rec.StdDevUsed, rec.ProviderSpread,
	)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", rec.Ticker).Msg("scan record write failed")
	}
}

// LogTrade implements trader.TradeLog.
func (s *Store) LogTrade(p trader.Position) error {
	var forecasts []byte
	if len(p.Forecasts) > 0 {
		forecasts, _ = json.Marshal(p.Forecasts)
	}
	_, err := s.db.Exec(`
		INSERT INTO trades (ts, ticker, event_ticker, city, side, price, quantity, cost,
			order_id, target_date, paper, forecasts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TradeTime, p.Ticker, p.EventTicker, p.City, string(p.Side),
		p.PriceCents, p.Count, p.CostCents, p.OrderID, p.TargetDate,
		boolInt(p.Paper), string(forecasts),
	)
	return err
}

// LogSettlement implements trader.TradeLog.
func (s *Store) LogSettlement(p trader.Position, result string, pnlCents int, settledAt time.Time) error {
	won := result == string(p.Side)
	_, err := s.db.Exec(`
		INSERT INTO settlements (settled_at, ticker, city, side, price, quantity, cost,
			result, won, pnl, paper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settledAt, p.Ticker, p.City, string(p.Side), p.PriceCents, p.Count,
		p.CostCents, result, boolInt(won), pnlCents, boolInt(p.Paper),
	)
	return err
}

// DailyStats summarizes settlements for the given day.
type DailyStats struct {
	Trades   int
	Wins     int
	Losses   int
	PnLCents int
}

// DailyStats returns settlement stats for the calendar day of t.
func (s *Store) DailyStats(t time.Time) (*DailyStats, error) {
	day := t.Format("2006-01-02")

	var stats DailyStats
	err := s.db.QueryRow(`
		SELECT COALESCE(COUNT(*), 0),
			   COALESCE(SUM(CASE WHEN won = 1 THEN 1 ELSE 0 END), 0),
			   COALESCE(SUM(CASE WHEN won = 0 THEN 1 ELSE 0 END), 0),
			   COALESCE(SUM(pnl), 0)
		FROM settlements WHERE DATE(settled_at) = DATE(?)`,
		day,
	).Scan(&stats.Trades, &stats.Wins, &stats.Losses, &stats.PnLCents)
	if err != nil {
		return nil, fmt.Errorf("storage: daily stats: %w", err)
	}
	return &stats, nil
}

// TradesToday counts trades written on the calendar day of t.
func (s *Store) TradesToday(t time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM trades WHERE DATE(ts) = DATE(?)`,
		t.Format("2006-01-02")).Scan(&n)
	return n, err
}

// Outcome pairs a recorded trade signal with its eventual settlement.
type Outcome struct {
	Ticker       string
	Side         string
	PriceCents   int
	AdjustedEdge float64
	Confidence   float64
	Won          bool
	PnLCents     int
}

// Outcomes joins trade-action scan records with settlements on the same
// ticker and side. Signals that never settled are excluded.
func (s *Store) Outcomes() ([]Outcome, error) {
	rows, err := s.db.Query(`
		SELECT sc.ticker, sc.side, sc.price, COALESCE(sc.adjusted_edge, 0),
			   sc.confidence, st.won, st.pnl
		FROM scans sc
		JOIN settlements st ON st.ticker = sc.ticker AND st.side = sc.side
		WHERE sc.action = 'trade'
		ORDER BY sc.ts`)
	if err != nil {
		return nil, fmt.Errorf("storage: outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var won int
		if err := rows.Scan(&o.Ticker, &o.Side, &o.PriceCents, &o.AdjustedEdge,
			&o.Confidence, &won, &o.PnLCents); err != nil {
			return nil, err
		}
		o.Won = won == 1
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
