package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/brendanplayford/kalshi-weather-trader/internal/storage"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/trader"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current book without touching the exchange",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := trader.LoadState(filepath.Join(cfg.DataDir, "trader_state.json"))
		if err != nil {
			return err
		}

		now := time.Now()
		mode := "live"
		if cfg.PaperTrading {
			mode = "paper"
		}

		fmt.Printf("mode:           %s\n", mode)
		if cfg.PaperTrading {
			fmt.Printf("paper balance:  $%.2f\n", float64(state.PaperBalance())/100)
		}
		day := state.DailyRecord(now)
		week := state.WeeklyRecord(now)
		fmt.Printf("daily P&L:      $%.2f (%dW-%dL)\n", float64(day.PnLCents)/100, day.Wins, day.Losses)
		fmt.Printf("weekly P&L:     $%.2f (%dW-%dL)\n", float64(week.PnLCents)/100, week.Wins, week.Losses)
		fmt.Printf("total P&L:      $%.2f\n", float64(state.TotalPnL())/100)
		fmt.Printf("trades today:   %d\n", state.TradesToday(now))

		store, err := storage.NewStore(cfg.DataDir, log)
		if err == nil {
			defer store.Close()
			if stats, err := store.DailyStats(now); err == nil {
				fmt.Printf("settled today:  %d (%d won / %d lost)\n",
					stats.Trades, stats.Wins, stats.Losses)
			}
		}

		positions := state.Positions()
		fmt.Printf("open positions: %d\n", len(positions))
		for _, p := range positions {
			fmt.Printf("  %-28s %-3s %2d @ %2d¢  cost $%.2f  opened %s\n",
				p.Ticker, p.Side, p.Count, p.PriceCents,
				float64(p.CostCents)/100, p.TradeTime)
		}
		return nil
	},
}
