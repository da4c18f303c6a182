// Package config provides configuration handling for the weather trading
// daemon.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingAPIKey is returned when the API key ID is not configured.
	ErrMissingAPIKey = errors.New("config: KALSHI_API_KEY_ID environment variable not set")

	// ErrMissingPrivateKey is returned when the private key path is not
	// configured.
	ErrMissingPrivateKey = errors.New("config: KALSHI_PRIVATE_KEY_PATH environment variable not set")
)

// Config holds the application configuration.
type Config struct {
	// PaperTrading simulates all order flow when true. Defaults to true;
	// live trading must be opted into explicitly.
	PaperTrading bool

	// APIKeyID is the Kalshi API key identifier.
	APIKeyID string

	// PrivateKeyPath points at the PEM-encoded RSA key for signing.
	PrivateKeyPath string

	// TelegramToken and TelegramChatID configure operator notifications.
	// Empty token disables them.
	TelegramToken  string
	TelegramChatID int64

	// DataDir is where state, ledgers, records, and logs live.
	DataDir string

	// AccuracyPath is the provider accuracy history file.
	AccuracyPath string

	// Debug enables debug-level logging.
	Debug bool

	// Params are the trading thresholds for the selected mode.
	Params Params
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	paper := true
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		paper = strings.EqualFold(v, "true")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}

	accuracyPath := os.Getenv("WEATHER_ACCURACY_PATH")
	if accuracyPath == "" {
		accuracyPath = filepath.Join(dataDir, "weather_accuracy.json")
	}

	var chatID int64
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			chatID = id
		}
	}

	params := LiveParams()
	if paper {
		params = PaperParams()
	}

	return &Config{
		PaperTrading:   paper,
		APIKeyID:       os.Getenv("KALSHI_API_KEY_ID"),
		PrivateKeyPath: os.Getenv("KALSHI_PRIVATE_KEY_PATH"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: chatID,
		DataDir:        dataDir,
		AccuracyPath:   accuracyPath,
		Debug:          os.Getenv("DEBUG") == "true",
		Params:         params,
	}, nil
}

// Validate checks that required configuration is present. Credentials are
// required even in paper mode: the daemon still reads the real balance and
// market data.
func (c *Config) Validate() error {
	if c.APIKeyID == "" {
		return ErrMissingAPIKey
	}
	if c.PrivateKeyPath == "" {
		return ErrMissingPrivateKey
	}
	return nil
}

// Params are the trading thresholds and risk limits. Paper mode loosens
// the filters for more opportunity volume; the risk arithmetic is
// identical in both modes.
type Params struct {
	// Filter thresholds
	MinEdgeCents         float64
	MaxEdgeCents         float64 // above this the quote is likely stale
	MinYesPriceCents     int
	MinNoPriceCents      int
	MinConfidence        float64
	MaxDisagreementCents int
	MaxFairMarketRatio   float64
	ModelWeight          float64
	StrikeProximityF     float64
	MaxProviderSpreadF   float64
	MinVolume            int
	MaxSpreadCents       int

	// Sizing
	KellyFraction        float64
	MaxContracts         int
	MaxCostPerTradeCents int

	// Risk limits
	MaxOpenPositions     int
	MaxDailyTrades       int
	MaxPerGroup          int
	MaxDailyLossCents    int
	MaxWeeklyLossCents   int
	BreakerAlertInterval time.Duration
	BalanceBufferCents   int

	// PaperNotifications controls whether paper trades notify the
	// operator.
	PaperNotifications bool
}

func baseParams() Params {
	return Params{
		MaxEdgeCents:         60,
		ModelWeight:          0.3,
		MaxProviderSpreadF:   6.0,
		MinVolume:            10,
		MaxSpreadCents:       30,
		KellyFraction:        0.25,
		MaxContracts:         8,
		MaxCostPerTradeCents: 500,
		MaxOpenPositions:     20,
		MaxDailyTrades:       40,
		MaxPerGroup:          2,
		MaxDailyLossCents:    500,
		MaxWeeklyLossCents:   1000,
		BreakerAlertInterval: time.Hour,
		BalanceBufferCents:   500,
	}
}

// LiveParams returns the live-mode thresholds.
func LiveParams() Params {
	p := baseParams()
	p.MinEdgeCents = 15
	p.MinYesPriceCents = 15
	p.MinNoPriceCents = 15
	p.MinConfidence = 0.6
	p.MaxDisagreementCents = 25
	p.MaxFairMarketRatio = 3.0
	p.StrikeProximityF = 1.5
	return p
}

// PaperParams returns the paper-mode thresholds.
func PaperParams() Params {
	p := baseParams()
	p.MinEdgeCents = 10
	p.MinYesPriceCents = 5
	p.MinNoPriceCents = 5
	p.MinConfidence = 0.5
	p.MaxDisagreementCents = 40
	p.MaxFairMarketRatio = 3.5
	p.StrikeProximityF = 0.2
	return p
}
