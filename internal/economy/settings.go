package economy

import (
	"log"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/platform/config"
)

// MinInterestInterval is the shortest accrual interval the settings accept.
const MinInterestInterval = time.Minute

// Settings is the economy configuration snapshot the ledger operates under.
// Snapshots are immutable once applied; ApplySettings swaps the whole value.
type Settings struct {
	StartingBalance  decimal.Decimal
	MaxBalance       decimal.Decimal
	InterestEnabled  bool
	InterestRate     decimal.Decimal
	InterestInterval time.Duration
	TaxRate          decimal.Decimal
	DailyBonusAmount decimal.Decimal
	LoanRate         decimal.Decimal
	MaxLoanAmount    decimal.Decimal
}

// DefaultSettings returns the built-in economy configuration. It matches the
// envDefault values on the environment surface.
func DefaultSettings() Settings {
	return Settings{
		StartingBalance:  decimal.NewFromInt(1000),
		MaxBalance:       decimal.NewFromInt(1000000),
		InterestEnabled:  true,
		InterestRate:     decimal.RequireFromString("0.005"),
		InterestInterval: time.Hour,
		TaxRate:          decimal.RequireFromString("0.02"),
		DailyBonusAmount: decimal.NewFromInt(100),
		LoanRate:         decimal.RequireFromString("0.1"),
		MaxLoanAmount:    decimal.NewFromInt(10000),
	}
}

// Validate rejects the settings as a whole on the first violation: rates must
// lie in [0, 1], balances and amounts must be positive, the starting balance
// cannot exceed the cap, and the accrual interval has a floor.
func (s Settings) Validate() error {
	for _, rate := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"interest rate", s.InterestRate},
		{"tax rate", s.TaxRate},
		{"loan rate", s.LoanRate},
	} {
		if rate.value.IsNegative() || rate.value.GreaterThan(decimal.NewFromInt(1)) {
			return apperrors.WithMetadata(
				apperrors.CodeRateOutOfRange,
				rate.name+" must be between 0 and 1",
				map[string]string{"Rate": rate.value.String()},
			)
		}
	}
	if !s.StartingBalance.IsPositive() {
		return settingsError("starting balance must be greater than zero")
	}
	if !s.MaxBalance.IsPositive() {
		return settingsError("max balance must be greater than zero")
	}
	if s.StartingBalance.GreaterThan(s.MaxBalance) {
		return settingsError("starting balance cannot exceed max balance")
	}
	if !s.DailyBonusAmount.IsPositive() {
		return settingsError("daily bonus amount must be greater than zero")
	}
	if !s.MaxLoanAmount.IsPositive() {
		return settingsError("max loan amount must be greater than zero")
	}
	if s.InterestInterval < MinInterestInterval {
		return settingsError("interest interval must be at least one minute")
	}
	return nil
}

func settingsError(reason string) error {
	return apperrors.WithMetadata(
		apperrors.CodeSettingsInvalid,
		"economy settings are invalid: "+reason,
		map[string]string{"Reason": reason},
	)
}

type settingsEnv struct {
	StartingBalance  decimal.Decimal `env:"TREASURY_ECONOMY_STARTING_BALANCE" envDefault:"1000"`
	MaxBalance       decimal.Decimal `env:"TREASURY_ECONOMY_MAX_BALANCE" envDefault:"1000000"`
	InterestEnabled  bool            `env:"TREASURY_ECONOMY_INTEREST_ENABLED" envDefault:"true"`
	InterestRate     decimal.Decimal `env:"TREASURY_ECONOMY_INTEREST_RATE" envDefault:"0.005"`
	InterestInterval time.Duration   `env:"TREASURY_ECONOMY_INTEREST_INTERVAL" envDefault:"1h"`
	TaxRate          decimal.Decimal `env:"TREASURY_ECONOMY_TAX_RATE" envDefault:"0.02"`
	DailyBonusAmount decimal.Decimal `env:"TREASURY_ECONOMY_DAILY_BONUS_AMOUNT" envDefault:"100"`
	LoanRate         decimal.Decimal `env:"TREASURY_ECONOMY_LOAN_RATE" envDefault:"0.1"`
	MaxLoanAmount    decimal.Decimal `env:"TREASURY_ECONOMY_MAX_LOAN_AMOUNT" envDefault:"10000"`
}

// SettingsFromEnv loads settings from TREASURY_ECONOMY_* variables. Invalid
// values are rejected as a whole and replaced by defaults with a logged
// warning; the service keeps running on operator misconfiguration.
func SettingsFromEnv() Settings {
	var raw settingsEnv
	if err := config.ParseEnv(&raw); err != nil {
		log.Printf("economy settings env invalid, using defaults: %v", err)
		return DefaultSettings()
	}
	settings := Settings{
		StartingBalance:  raw.StartingBalance,
		MaxBalance:       raw.MaxBalance,
		InterestEnabled:  raw.InterestEnabled,
		InterestRate:     raw.InterestRate,
		InterestInterval: raw.InterestInterval,
		TaxRate:          raw.TaxRate,
		DailyBonusAmount: raw.DailyBonusAmount,
		LoanRate:         raw.LoanRate,
		MaxLoanAmount:    raw.MaxLoanAmount,
	}
	if err := settings.Validate(); err != nil {
		log.Printf("economy settings rejected, using defaults: %v", err)
		return DefaultSettings()
	}
	return settings
}
