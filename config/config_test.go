package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/config"
)

const sample = `
server:
  port: 9000
  db_path: ":memory:"
  region: VIC
  shutdown_timeout: 5s
logging:
  level: debug
  format: json
rates_file: rates.yaml
engine:
  combination_policy: additive
  daily_threshold_hours: 7.6
  overtime_tiers:
    - {after_hours: 0, multiplier: 1.5}
    - {after_hours: 3, multiplier: "2.0"}
  overtime_composition: multiplicative
  pay_period: fortnightly
  pay_period_anchor: 2025-01-06
  min_rest_hours: 11
  super_rate_pct: 11.5
  super_include_penalties: false
  audit_workers: 2
  extended_checks: true
`

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "rates.yaml", cfg.RatesFile)

	ac, err := cfg.Engine.ToAward()
	require.NoError(t, err)
	assert.Equal(t, award.CombineAdditive, ac.CombinationPolicy)
	assert.True(t, ac.Overtime.DailyThresholdHours.Equal(decimal.RequireFromString("7.6")))
	require.Len(t, ac.Overtime.Tiers, 2)
	assert.True(t, ac.Overtime.Tiers[1].AfterHours.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, award.ComposeMultiplicative, ac.Overtime.Composition)
	assert.Equal(t, award.PeriodFortnightly, ac.Weekly.Period.Type)
	assert.Equal(t, award.NewDate(2025, time.January, 6), ac.Weekly.Period.Anchor)
	assert.True(t, ac.Fatigue.MinRestHours.Equal(decimal.NewFromInt(11)))
	assert.True(t, ac.Super.RatePct.Equal(decimal.RequireFromString("11.5")))
	assert.False(t, ac.Super.IncludePenalties)
	assert.Equal(t, 2, ac.Audit.Workers)
	assert.True(t, ac.Audit.ExtendedChecks)

	// untouched fields keep engine defaults
	def := award.DefaultConfig()
	assert.Equal(t, def.SplitShiftMinGapMinutes, ac.SplitShiftMinGapMinutes)
	assert.True(t, def.Weekly.OrdinaryHoursPerWeek.Equal(ac.Weekly.OrdinaryHoursPerWeek))
	assert.Equal(t, def.Fatigue.MaxConsecutiveDays, ac.Fatigue.MaxConsecutiveDays)
}

func TestParse_EmptyDocumentIsDefault(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	ac, err := cfg.Engine.ToAward()
	require.NoError(t, err)
	assert.Equal(t, award.DefaultConfig().CombinationPolicy, ac.CombinationPolicy)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "server:\n  prot: 80\n"},
		{"port", "server:\n  port: 70000\n"},
		{"policy", "engine:\n  combination_policy: average\n"},
		{"decimal", "engine:\n  min_rest_hours: ten\n"},
		{"anchor", "engine:\n  pay_period_anchor: monday\n"},
		{"severe above minimum", "engine:\n  severe_rest_hours: 12\n"},
		{"negative audit interval", "server:\n  audit_interval: -1m\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_EngineErrorsAreConfigErrors(t *testing.T) {
	_, err := config.Parse([]byte("engine:\n  min_rest_hours: ten\n"))

	var cfgErr *award.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "engine.min_rest_hours", cfgErr.Field)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "award.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Setenv("AWARD_PORT", "9191")
	t.Setenv("AWARD_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AWARD_COMBINATION_POLICY", "PRECEDENCE")
	t.Setenv("AWARD_AUDIT_WORKERS", "4")
	t.Setenv("AWARD_AUDIT_INTERVAL", "15m")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "VIC", cfg.Server.Region, "file values survive when no variable is set")
	assert.Equal(t, 15*time.Minute, cfg.Server.AuditInterval)
	assert.Equal(t, 28, cfg.Server.AuditLookbackDays)
	ac, err := cfg.Engine.ToAward()
	require.NoError(t, err)
	assert.Equal(t, award.CombinePrecedence, ac.CombinationPolicy)
	assert.Equal(t, 4, ac.Audit.Workers)
}

func TestLoad_BadEnvironment(t *testing.T) {
	t.Setenv("AWARD_PORT", "eighty")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
