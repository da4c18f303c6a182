// Command weatherbot trades Kalshi daily-high temperature markets from a
// multi-model forecast ensemble.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendanplayford/kalshi-weather-trader/internal/config"
	"github.com/brendanplayford/kalshi-weather-trader/internal/notify"
	"github.com/brendanplayford/kalshi-weather-trader/internal/storage"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/forecast"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/rest"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/strategy"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/trader"
	"github.com/brendanplayford/kalshi-weather-trader/pkg/weather"
)

const logTailLines = 200

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "weatherbot",
	Short: "Automated Kalshi weather market trader",
	Long: "weatherbot scans Kalshi daily-high temperature markets across " +
		"11 US cities, prices them with a five-model forecast ensemble, and " +
		"trades the mispricings under strict risk limits.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return err
		}
		return setupLogging()
	},
}

func setupLogging() error {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}

	var out io.Writer = console
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tail, err := newTailWriter(filepath.Join(cfg.DataDir, "weatherbot.log"), logTailLines)
	if err == nil {
		out = zerolog.MultiLevelWriter(console, zerolog.ConsoleWriter{Out: tail, NoColor: true, TimeFormat: time.RFC3339})
	}

	log = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// app holds the wired daemon components.
type app struct {
	client   *rest.Client
	ensemble *forecast.Ensemble
	store    *storage.Store
	state    *trader.State
	scanner  *strategy.Scanner
	executor *trader.Executor
	settler  *trader.Settler
	telegram *notify.Telegram
}

// buildApp wires every component from config. Credential errors are the
// only fatal ones; a missing Telegram token just disables notifications.
func buildApp() (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key, err := rest.LoadPrivateKeyFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	client := rest.New(cfg.APIKeyID, key, rest.WithLogger(log))

	accuracy, err := forecast.NewAccuracyStore(cfg.AccuracyPath, log)
	if err != nil {
		return nil, err
	}
	ensemble := forecast.New(accuracy, log)

	store, err := storage.NewStore(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	state, err := trader.LoadState(filepath.Join(cfg.DataDir, "trader_state.json"))
	if err != nil {
		return nil, err
	}

	telegram, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID, log)
	if err != nil {
		log.Warn().Err(err).Msg("telegram unavailable, notifications disabled")
		telegram = nil
	}
	var notifier trader.Notifier = trader.NopNotifier{}
	if telegram != nil {
		notifier = telegram
	}

	var venue trader.Venue
	if cfg.PaperTrading {
		venue = trader.NewPaperVenue(state, log)
	} else {
		venue = trader.NewLiveVenue(client)
	}

	breaker := trader.NewBreaker(state, cfg.Params, log)
	scanner := strategy.NewScanner(client, ensemble, cfg.Params, store, log)
	executor := trader.NewExecutor(venue, state, breaker, cfg.Params, notifier, store, log)
	settler := trader.NewSettler(client, weather.ObservedHigh, state, accuracy,
		notifier, store, cfg.Params.PaperNotifications, log)

	return &app{
		client:   client,
		ensemble: ensemble,
		store:    store,
		state:    state,
		scanner:  scanner,
		executor: executor,
		settler:  settler,
		telegram: telegram,
	}, nil
}

func main() {
	rootCmd.AddCommand(runCmd, scanCmd, statusCmd, backtestCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "weatherbot:", err)
		os.Exit(1)
	}
}
