// Package treasuryd parses treasury command flags and starts the runtime.
package treasuryd

import (
	"context"
	"flag"
	"time"

	"github.com/tavernworks/treasury/internal/app"
	entrypoint "github.com/tavernworks/treasury/internal/platform/cmd"
)

// Config holds treasury command configuration.
type Config struct {
	Port               int           `env:"TREASURY_PORT" envDefault:"8095"`
	DBDriver           string        `env:"TREASURY_DB_DRIVER" envDefault:"sqlite"`
	DBPath             string        `env:"TREASURY_DB_PATH" envDefault:"data/treasury.db"`
	SettlementInterval time.Duration `env:"TREASURY_SETTLEMENT_INTERVAL" envDefault:"1m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The treasury HTTP server port")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "The storage driver (sqlite or bbolt)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The storage database path")
	fs.DurationVar(&cfg.SettlementInterval, "settlement-interval", cfg.SettlementInterval, "Interval between interest settlement passes")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the treasury service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTreasury, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:               cfg.Port,
			DBDriver:           cfg.DBDriver,
			DBPath:             cfg.DBPath,
			SettlementInterval: cfg.SettlementInterval,
		})
	})
}
