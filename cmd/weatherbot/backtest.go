package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brendanplayford/kalshi-weather-trader/internal/storage"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay recorded signals against their settlements",
	Long: "backtest joins every trade signal the scanner recorded with the " +
		"market's eventual settlement and reports win rate and P&L by edge " +
		"bucket, so threshold changes can be judged against real history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStore(cfg.DataDir, log)
		if err != nil {
			return err
		}
		defer store.Close()

		outcomes, err := store.Outcomes()
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			fmt.Println("no settled signals recorded yet")
			return nil
		}

		report(outcomes)
		return nil
	},
}

type bucketStats struct {
	label  string
	min    float64
	trades int
	wins   int
	pnl    int
}

func report(outcomes []storage.Outcome) {
	buckets := []*bucketStats{
		{label: "10-15¢", min: 10},
		{label: "15-20¢", min: 15},
		{label: "20-30¢", min: 20},
		{label: "30¢+", min: 30},
	}

	var total bucketStats
	for _, o := range outcomes {
		total.trades++
		total.pnl += o.PnLCents
		if o.Won {
			total.wins++
		}

		var b *bucketStats
		for i := len(buckets) - 1; i >= 0; i-- {
			if o.AdjustedEdge >= buckets[i].min {
				b = buckets[i]
				break
			}
		}
		if b == nil {
			continue
		}
		b.trades++
		b.pnl += o.PnLCents
		if o.Won {
			b.wins++
		}
	}

	fmt.Printf("%-8s %7s %6s %9s %9s\n", "EDGE", "TRADES", "WINS", "WIN RATE", "P&L")
	for _, b := range buckets {
		if b.trades == 0 {
			continue
		}
		fmt.Printf("%-8s %7d %6d %8.1f%% %9s\n",
			b.label, b.trades, b.wins,
			100*float64(b.wins)/float64(b.trades), dollars(b.pnl))
	}
	fmt.Printf("%-8s %7d %6d %8.1f%% %9s\n",
		"total", total.trades, total.wins,
		100*float64(total.wins)/float64(total.trades), dollars(total.pnl))
}

func dollars(cents int) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
