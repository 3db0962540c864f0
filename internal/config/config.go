// Package config loads the closectl configuration from file and environment
// and owns the global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/detect"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/gate"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/materiality"
)

// Config holds the full application configuration.
type Config struct {
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Materiality MaterialityConfig `yaml:"materiality" mapstructure:"materiality"`
	Detect      DetectConfig      `yaml:"detect" mapstructure:"detect"`
	Gate        GateConfig        `yaml:"gate" mapstructure:"gate"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the data sources and output artifacts.
type DataConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	OutDir   string `yaml:"out_dir" mapstructure:"out_dir"`
	AuditLog string `yaml:"audit_log" mapstructure:"audit_log"`
}

// MaterialityConfig configures threshold derivation.
type MaterialityConfig struct {
	Rate     float64 `yaml:"rate" mapstructure:"rate"`
	FloorUSD float64 `yaml:"floor_usd" mapstructure:"floor_usd"`
}

// DetectConfig configures the detection rule parameters.
type DetectConfig struct {
	TimingWindowDays     int      `yaml:"timing_window_days" mapstructure:"timing_window_days"`
	VelocityMinTxns      int      `yaml:"velocity_min_txns" mapstructure:"velocity_min_txns"`
	CounterpartyKeywords []string `yaml:"counterparty_keywords" mapstructure:"counterparty_keywords"`
	LargePaymentFloor    float64  `yaml:"large_payment_floor" mapstructure:"large_payment_floor"`
	AgedDaysLimit        int      `yaml:"aged_days_limit" mapstructure:"aged_days_limit"`
	NewVendorAmount      float64  `yaml:"new_vendor_amount" mapstructure:"new_vendor_amount"`
	TransferPricingFloor float64  `yaml:"transfer_pricing_floor" mapstructure:"transfer_pricing_floor"`
	TopContributors      int      `yaml:"top_contributors" mapstructure:"top_contributors"`
}

// GateConfig configures the gatekeeping risk policy.
type GateConfig struct {
	HighRiskThresholdUSD    float64 `yaml:"high_risk_threshold_usd" mapstructure:"high_risk_threshold_usd"`
	MaterialityThresholdUSD float64 `yaml:"materiality_threshold_usd" mapstructure:"materiality_threshold_usd"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("closectl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLOSECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.out_dir", "./artifacts")
	v.SetDefault("data.audit_log", "./artifacts/audit_log.jsonl")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("materiality.rate", 0.005)
	v.SetDefault("materiality.floor_usd", 1000.0)
	v.SetDefault("detect.timing_window_days", 3)
	v.SetDefault("detect.velocity_min_txns", 3)
	v.SetDefault("detect.counterparty_keywords", []string{"cash advance", "loan", "lending"})
	v.SetDefault("detect.large_payment_floor", 10000.0)
	v.SetDefault("detect.aged_days_limit", 60)
	v.SetDefault("detect.new_vendor_amount", 25000.0)
	v.SetDefault("detect.transfer_pricing_floor", 50000.0)
	v.SetDefault("detect.top_contributors", 5)
	v.SetDefault("gate.high_risk_threshold_usd", 250000.0)
	v.SetDefault("gate.materiality_threshold_usd", 50000.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks invariants that would otherwise surface deep inside a run.
func (c *Config) Validate() error {
	if c.Materiality.Rate < 0 {
		return eris.Errorf("config: materiality rate must be >= 0 (got %v)", c.Materiality.Rate)
	}
	if c.Detect.TimingWindowDays < 0 {
		return eris.Errorf("config: timing window must be >= 0 days (got %d)", c.Detect.TimingWindowDays)
	}
	if c.Gate.HighRiskThresholdUSD < c.Gate.MaterialityThresholdUSD {
		return eris.Errorf("config: high-risk threshold %v below materiality threshold %v",
			c.Gate.HighRiskThresholdUSD, c.Gate.MaterialityThresholdUSD)
	}
	return nil
}

// MaterialityFor returns the resolver configuration.
func (c *Config) MaterialityFor() materiality.Config {
	return materiality.Config{
		Rate:  decimal.NewFromFloat(c.Materiality.Rate),
		Floor: decimal.NewFromFloat(c.Materiality.FloorUSD),
	}
}

// DetectFor returns the detector rule parameters, starting from the
// defaults and overlaying the configured values.
func (c *Config) DetectFor() detect.Config {
	d := detect.DefaultConfig()
	if c.Detect.TimingWindowDays > 0 {
		d.TimingWindowDays = c.Detect.TimingWindowDays
	}
	if c.Detect.VelocityMinTxns > 0 {
		d.VelocityMinTxns = c.Detect.VelocityMinTxns
	}
	if len(c.Detect.CounterpartyKeywords) > 0 {
		d.CounterpartyKeywords = c.Detect.CounterpartyKeywords
	}
	if c.Detect.LargePaymentFloor > 0 {
		d.LargePaymentFloor = decimal.NewFromFloat(c.Detect.LargePaymentFloor)
	}
	if c.Detect.AgedDaysLimit > 0 {
		d.AgedDaysLimit = c.Detect.AgedDaysLimit
	}
	if c.Detect.NewVendorAmount > 0 {
		d.NewVendorAmount = decimal.NewFromFloat(c.Detect.NewVendorAmount)
	}
	if c.Detect.TransferPricingFloor > 0 {
		d.TransferPricingFloor = decimal.NewFromFloat(c.Detect.TransferPricingFloor)
	}
	if c.Detect.TopContributors > 0 {
		d.TopContributors = c.Detect.TopContributors
	}
	return d
}

// GateFor returns the gate policy thresholds.
func (c *Config) GateFor() gate.Config {
	g := gate.DefaultConfig()
	if c.Gate.HighRiskThresholdUSD > 0 {
		g.HighRiskThreshold = decimal.NewFromFloat(c.Gate.HighRiskThresholdUSD)
	}
	if c.Gate.MaterialityThresholdUSD > 0 {
		g.MaterialityThreshold = decimal.NewFromFloat(c.Gate.MaterialityThresholdUSD)
	}
	return g
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
