package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendanplayford/kalshi-weather-trader/pkg/forecast"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/trader"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		banner(a)
		return runLoop(ctx, a)
	},
}

// banner logs the startup summary, including the real exchange balance in
// both modes. Paper mode still authenticates; a bad key should surface at
// startup, not on the first live order months later.
func banner(a *app) {
	mode := "LIVE"
	if cfg.PaperTrading {
		mode = "PAPER"
	}
	log.Info().
		Str("mode", mode).
		Int("cities", len(weather.Stations)).
		Int("providers", a.ensemble.ProviderCount()).
		Float64("min_edge", cfg.Params.MinEdgeCents).
		Float64("min_confidence", cfg.Params.MinConfidence).
		Msg("weatherbot starting")

	if bal, err := a.client.GetBalance(); err != nil {
		log.Warn().Err(err).Msg("exchange balance unavailable")
	} else {
		log.Info().Int("exchange_balance", bal.Balance).Msg("exchange account ok")
	}
	if cfg.PaperTrading {
		log.Info().Int("paper_balance", a.state.PaperBalance()).Msg("paper book loaded")
	}
	log.Info().Int("open_positions", a.state.OpenCount()).Msg("state loaded")
}

// runLoop is the daemon cycle: settle finished positions, scan for new
// opportunities, execute survivors, sleep until the next model window.
func runLoop(ctx context.Context, a *app) error {
	lastDay := trader.DayKey(time.Now())

	for {
		now := time.Now()

		if day := trader.DayKey(now); day != lastDay {
			sendDailySummary(a, lastDay)
			lastDay = day
		}

		if settled := a.settler.SettleAll(ctx); settled > 0 {
			log.Info().Int("settled", settled).Msg("settlement pass complete")
		}
		if err := a.state.Save(); err != nil {
			log.Error().Err(err).Msg("state save failed")
		}

		opportunities := a.scanner.FindOpportunities(ctx)
		log.Info().Int("opportunities", len(opportunities)).Msg("scan complete")

		if placed := a.executor.Execute(opportunities); placed > 0 {
			log.Info().Int("placed", placed).Msg("execution complete")
		}
		if err := a.state.Save(); err != nil {
			log.Error().Err(err).Msg("state save failed")
		}

		interval := forecast.PollInterval(time.Now())
		log.Debug().Dur("sleep", interval).Msg("cycle done")

		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return a.state.Save()
		case <-time.After(interval):
		}
	}
}

func sendDailySummary(a *app, day string) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return
	}
	stats, err := a.store.DailyStats(t)
	if err != nil {
		log.Warn().Err(err).Msg("daily stats unavailable")
		return
	}
	log.Info().Int("settled", stats.Trades).Int("wins", stats.Wins).
		Int("losses", stats.Losses).Int("pnl", stats.PnLCents).
		Str("day", day).Msg("daily summary")
	if a.telegram != nil {
		a.telegram.DailySummary(stats.Trades, stats.Wins, stats.Losses,
			stats.PnLCents, a.state.OpenCount())
	}
}
