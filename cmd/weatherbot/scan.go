package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle and print opportunities without trading",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.store.Close()

		opportunities := a.scanner.FindOpportunities(context.Background())
		if len(opportunities) == 0 {
			fmt.Println("no opportunities found")
			return nil
		}

		fmt.Printf("%-28s %-4s %5s %5s %5s %6s %5s  %s\n",
			"TICKER", "SIDE", "PRICE", "MODEL", "BLEND", "EDGE", "CONF", "CONTRACT")
		for i := range opportunities {
			o := &opportunities[i]
			fmt.Printf("%-28s %-4s %4d¢ %4d¢ %4d¢ %5.1f¢ %4.0f%%  %s\n",
				o.Ticker, o.Side, o.PriceCents, o.ModelFairCents,
				o.BlendedFairCents, o.AdjustedEdgeCents, o.Confidence*100,
				o.Describe())
		}
		return nil
	},
}
