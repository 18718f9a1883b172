/*
Package config loads application configuration.

PURPOSE:
  One Config drives the server, the CLI and the engine. Values come from
  three layers, later layers winning:

    1. Defaults          Default()
    2. YAML file         --config award.yaml
    3. Environment       AWARD_* variables, optionally from a .env file

FILE FORMAT:
  server:
    port: 8080
    db_path: award.db
    region: VIC
    allowed_origins: ["http://localhost:5173"]
    shutdown_timeout: 30s
    audit_interval: 1h        # 0 disables scheduled audits
    audit_lookback_days: 28
  logging:
    level: info
    format: json
  rates_file: rates/hospitality.yaml
  engine:
    combination_policy: HIGHEST
    daily_threshold_hours: 8
    overtime_tiers:
      - {after_hours: 0, multiplier: 1.5}
      - {after_hours: 2, multiplier: 2}
    ordinary_hours_per_week: 38
    pay_period: WEEKLY
    min_rest_hours: 10
    super_rate_pct: 12
    audit_workers: 8

  Engine fields left empty keep the engine defaults (award.DefaultConfig).

ENVIRONMENT:
  AWARD_PORT, AWARD_DB_PATH, AWARD_REGION, AWARD_ALLOWED_ORIGINS (comma
  separated), AWARD_RATES_FILE, AWARD_LOG_LEVEL, AWARD_LOG_FORMAT,
  AWARD_COMBINATION_POLICY, AWARD_SUPER_RATE_PCT, AWARD_AUDIT_WORKERS,
  AWARD_AUDIT_INTERVAL

SEE ALSO:
  - award/engine.go: award.Config and its defaults
  - cmd/award/main.go: --config flag
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/logging"
)

const envPrefix = "AWARD_"

// Config is the main application configuration
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Logging   logging.Config `yaml:"logging"`
	RatesFile string         `yaml:"rates_file"`
	Engine    EngineConfig   `yaml:"engine"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	DBPath            string        `yaml:"db_path"`
	Region            string        `yaml:"region"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	AuditInterval     time.Duration `yaml:"audit_interval"`
	AuditLookbackDays int           `yaml:"audit_lookback_days"`
}

type TierConfig struct {
	AfterHours factory.Number `yaml:"after_hours"`
	Multiplier factory.Number `yaml:"multiplier"`
}

// EngineConfig mirrors award.Config in file-friendly types.
type EngineConfig struct {
	CombinationPolicy       string         `yaml:"combination_policy"`
	SplitShiftMinGapMinutes *int           `yaml:"split_shift_min_gap_minutes"`
	DailyThresholdHours     factory.Number `yaml:"daily_threshold_hours"`
	OvertimeTiers           []TierConfig   `yaml:"overtime_tiers"`
	OvertimeComposition     string         `yaml:"overtime_composition"`

	OrdinaryHoursPerWeek factory.Number `yaml:"ordinary_hours_per_week"`
	PayPeriod            string         `yaml:"pay_period"`
	PayPeriodAnchor      string         `yaml:"pay_period_anchor"`

	MinRestHours       factory.Number `yaml:"min_rest_hours"`
	SevereRestHours    factory.Number `yaml:"severe_rest_hours"`
	MaxConsecutiveDays int            `yaml:"max_consecutive_days"`
	FatigueWindowDays  int            `yaml:"fatigue_window_days"`

	SuperRatePct          factory.Number `yaml:"super_rate_pct"`
	SuperIncludePenalties *bool          `yaml:"super_include_penalties"`
	SuperAllowanceTypes   []string       `yaml:"super_allowance_types"`
	LeaveAccrualRate      factory.Number `yaml:"leave_accrual_rate"`

	AuditWorkers            int  `yaml:"audit_workers"`
	ExtendedChecks          bool `yaml:"extended_checks"`
	MaxHighFatigueEmployees int  `yaml:"max_high_fatigue_employees"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			DBPath:            "award.db",
			AllowedOrigins:    []string{"http://localhost:5173", "http://localhost:8080"},
			ShutdownTimeout:   30 * time.Second,
			AuditLookbackDays: 28,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load builds a Config from defaults, the optional YAML file at path and
// the environment. A .env file in the working directory is read first if
// present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", envPrefix, err)
		}
		c.Server.Port = port
	}
	if v, ok := get("DB_PATH"); ok {
		c.Server.DBPath = v
	}
	if v, ok := get("REGION"); ok {
		c.Server.Region = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if v, ok := get("RATES_FILE"); ok {
		c.RatesFile = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := get("COMBINATION_POLICY"); ok {
		c.Engine.CombinationPolicy = v
	}
	if v, ok := get("SUPER_RATE_PCT"); ok {
		c.Engine.SuperRatePct = factory.Number(v)
	}
	if v, ok := get("AUDIT_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sAUDIT_INTERVAL: %w", envPrefix, err)
		}
		c.Server.AuditInterval = d
	}
	if v, ok := get("AUDIT_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sAUDIT_WORKERS: %w", envPrefix, err)
		}
		c.Engine.AuditWorkers = n
	}
	return nil
}

// Validate checks the server settings and that the engine section converts
// to a valid award.Config.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Server.AuditInterval < 0 || c.Server.AuditLookbackDays < 0 {
		return fmt.Errorf("server.audit_interval and server.audit_lookback_days must not be negative")
	}
	_, err := c.Engine.ToAward()
	return err
}

// =============================================================================
// ENGINE CONVERSION
// =============================================================================

// ToAward overlays the configured values on award.DefaultConfig and
// validates the result.
func (e EngineConfig) ToAward() (award.Config, error) {
	cfg := award.DefaultConfig()

	if e.CombinationPolicy != "" {
		cfg.CombinationPolicy = award.CombinationPolicy(strings.ToUpper(e.CombinationPolicy))
	}
	if e.SplitShiftMinGapMinutes != nil {
		cfg.SplitShiftMinGapMinutes = *e.SplitShiftMinGapMinutes
	}
	if err := setDecimal(&cfg.Overtime.DailyThresholdHours, e.DailyThresholdHours, "engine.daily_threshold_hours"); err != nil {
		return cfg, err
	}
	if len(e.OvertimeTiers) > 0 {
		cfg.Overtime.Tiers = make([]award.OvertimeTier, len(e.OvertimeTiers))
		for i, t := range e.OvertimeTiers {
			field := fmt.Sprintf("engine.overtime_tiers[%d]", i)
			if err := setDecimal(&cfg.Overtime.Tiers[i].AfterHours, t.AfterHours, field+".after_hours"); err != nil {
				return cfg, err
			}
			if err := setDecimal(&cfg.Overtime.Tiers[i].Multiplier, t.Multiplier, field+".multiplier"); err != nil {
				return cfg, err
			}
		}
	}
	if e.OvertimeComposition != "" {
		cfg.Overtime.Composition = award.OvertimeComposition(strings.ToUpper(e.OvertimeComposition))
	}

	if err := setDecimal(&cfg.Weekly.OrdinaryHoursPerWeek, e.OrdinaryHoursPerWeek, "engine.ordinary_hours_per_week"); err != nil {
		return cfg, err
	}
	if e.PayPeriod != "" {
		cfg.Weekly.Period.Type = award.PayPeriodType(strings.ToUpper(e.PayPeriod))
	}
	if e.PayPeriodAnchor != "" {
		anchor, err := award.ParseDate(e.PayPeriodAnchor)
		if err != nil {
			return cfg, &award.ConfigError{Field: "engine.pay_period_anchor", Reason: err.Error()}
		}
		cfg.Weekly.Period.Anchor = anchor
	}

	if err := setDecimal(&cfg.Fatigue.MinRestHours, e.MinRestHours, "engine.min_rest_hours"); err != nil {
		return cfg, err
	}
	if err := setDecimal(&cfg.Fatigue.SevereRestHours, e.SevereRestHours, "engine.severe_rest_hours"); err != nil {
		return cfg, err
	}
	if e.MaxConsecutiveDays != 0 {
		cfg.Fatigue.MaxConsecutiveDays = e.MaxConsecutiveDays
	}
	if e.FatigueWindowDays != 0 {
		cfg.Fatigue.WindowDays = e.FatigueWindowDays
	}

	if err := setDecimal(&cfg.Super.RatePct, e.SuperRatePct, "engine.super_rate_pct"); err != nil {
		return cfg, err
	}
	if e.SuperIncludePenalties != nil {
		cfg.Super.IncludePenalties = *e.SuperIncludePenalties
	}
	if len(e.SuperAllowanceTypes) > 0 {
		cfg.Super.IncludeAllowanceTypes = append([]string(nil), e.SuperAllowanceTypes...)
	}
	if err := setDecimal(&cfg.Leave.AccrualRatePerHour, e.LeaveAccrualRate, "engine.leave_accrual_rate"); err != nil {
		return cfg, err
	}

	if e.AuditWorkers != 0 {
		cfg.Audit.Workers = e.AuditWorkers
	}
	cfg.Audit.ExtendedChecks = e.ExtendedChecks
	cfg.Audit.MaxHighFatigueEmployees = e.MaxHighFatigueEmployees

	return cfg, cfg.Validate()
}

// setDecimal leaves dst untouched when n is empty.
func setDecimal(dst *decimal.Decimal, n factory.Number, field string) error {
	if strings.TrimSpace(string(n)) == "" {
		return nil
	}
	d, err := n.Decimal()
	if err != nil {
		return &award.ConfigError{Field: field, Reason: err.Error()}
	}
	*dst = d
	return nil
}
