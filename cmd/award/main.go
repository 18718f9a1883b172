/*
main.go - Application entry point

PURPOSE:
  The award command. Runs the HTTP server or prices and audits roster
  files from the command line.

COMMANDS:
  serve     HTTP API with the SQLite store and scheduled audits
  pay       Price every shift in a roster file
  fatigue   Fatigue risk per employee in a roster file
  audit     Labour audit of a roster file
  version   Print the build version

GLOBAL FLAGS:
  --config   YAML config file (see config/config.go)
  --verbose  Debug logging

EXAMPLES:
  award serve --config award.yaml
  award pay --roster roster.yaml --rates rates/hospitality.yaml
  award audit --roster roster.json --min-score 90

SEE ALSO:
  - config/config.go: Configuration layers
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/config"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "award",
	Short: "Labour award pay and compliance engine",
	Long: `award prices rostered shifts against a modern award rate table and
audits rosters for fatigue and record-keeping compliance.

Examples:
  award serve --config award.yaml
  award pay --roster roster.yaml
  award audit --roster roster.yaml --min-score 90`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, payCmd, fatigueCmd, auditCmd, versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(cfgFile); err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if logger, err = logging.New(cfg.Logging); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// rateDocument reads path, falling back to the configured rates file and
// then to the built-in hospitality preset.
func rateDocument(path string) (factory.RateConfigDocument, error) {
	if path == "" {
		path = cfg.RatesFile
	}
	if path == "" {
		return factory.HospitalityPreset(), nil
	}
	var doc factory.RateConfigDocument
	if err := factory.DecodeFile(path, &doc); err != nil {
		return doc, fmt.Errorf("rates file %s: %w", path, err)
	}
	return doc, nil
}

// rosterEngine loads a roster file and builds an engine over its holidays.
func rosterEngine(ratesPath, rosterPath string) (*award.Engine, factory.Roster, error) {
	if rosterPath == "" {
		return nil, factory.Roster{}, fmt.Errorf("--roster is required")
	}
	doc, err := rateDocument(ratesPath)
	if err != nil {
		return nil, factory.Roster{}, err
	}
	table, err := factory.NewRateFactory().FromDocument(doc)
	if err != nil {
		return nil, factory.Roster{}, err
	}
	roster, err := factory.ParseRosterFile(rosterPath)
	if err != nil {
		return nil, roster, err
	}
	engineCfg, err := cfg.Engine.ToAward()
	if err != nil {
		return nil, roster, err
	}
	eng, err := award.NewEngine(table, roster.Calendar(), engineCfg, award.WithLogger(logger))
	return eng, roster, err
}
