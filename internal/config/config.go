package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
)

// Config holds all runtime configuration for the trading simulator.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	TickInterval    time.Duration `env:"TICK_INTERVAL" envDefault:"5s"`
	MaxDeltaPercent float64       `env:"MAX_DELTA_PERCENT" envDefault:"2.5"`
	Currency        string        `env:"CURRENCY" envDefault:"USD"`
	Instruments     Universe      `env:"INSTRUMENTS" envDefault:"AAPL:Apple Inc.:150;GOOGL:Alphabet Inc.:2800;AMZN:Amazon.com Inc.:3300;MSFT:Microsoft Corporation:300;TSLA:Tesla, Inc.:700"`
	WebhookTimeout  time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", c.Port)
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid TICK_INTERVAL: %s, must be positive", c.TickInterval)
	}
	if c.MaxDeltaPercent <= 0 || c.MaxDeltaPercent >= 100 {
		return fmt.Errorf("invalid MAX_DELTA_PERCENT: %v, must be in (0, 100)", c.MaxDeltaPercent)
	}
	c.Currency = strings.ToUpper(c.Currency)
	if !domain.ValidCurrency(c.Currency) {
		return fmt.Errorf("invalid CURRENCY: %q, must be an ISO 4217 code", c.Currency)
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("invalid INSTRUMENTS: at least one instrument is required")
	}

	for name, d := range map[string]time.Duration{
		"WEBHOOK_TIMEOUT":  c.WebhookTimeout,
		"READ_TIMEOUT":     c.ReadTimeout,
		"WRITE_TIMEOUT":    c.WriteTimeout,
		"IDLE_TIMEOUT":     c.IdleTimeout,
		"SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s: %s, must be positive", name, d)
		}
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// Universe is the list of tradable instruments, written as
// "SYMBOL:Display Name:price" entries separated by semicolons.
type Universe []domain.Listing

// UnmarshalText parses the INSTRUMENTS format.
func (u *Universe) UnmarshalText(text []byte) error {
	var listings Universe
	seen := make(map[string]bool)

	for _, entry := range strings.Split(string(text), ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		first := strings.Index(entry, ":")
		last := strings.LastIndex(entry, ":")
		if first <= 0 || first == last {
			return fmt.Errorf("instrument %q: want SYMBOL:Name:price", entry)
		}

		symbol := strings.ToUpper(strings.TrimSpace(entry[:first]))
		name := strings.TrimSpace(entry[first+1 : last])
		price, err := decimal.NewFromString(strings.TrimSpace(entry[last+1:]))
		if err != nil {
			return fmt.Errorf("instrument %q: invalid price: %w", entry, err)
		}
		if price.LessThan(domain.PriceFloor) {
			return fmt.Errorf("instrument %q: price must be at least %s", entry, domain.PriceFloor)
		}
		if seen[symbol] {
			return fmt.Errorf("instrument %q: duplicate symbol", entry)
		}
		seen[symbol] = true

		if name == "" {
			name = symbol
		}
		listings = append(listings, domain.Listing{
			Symbol:       symbol,
			DisplayName:  name,
			InitialPrice: price,
		})
	}

	*u = listings
	return nil
}
