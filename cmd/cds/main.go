// Command cds parses BAPLIE/COPRAR files and computes discharge sequences
// offline, without the HTTP service.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cdsplan/internal/config"
	"cdsplan/internal/logging"
	"cdsplan/internal/manifest"
)

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cds",
		Short: "Container discharge sequencing",
		Long: `cds reads a BAPLIE stowage manifest and a COPRAR discharge order,
merges them on container number and searches for the discharge sequence
with the lowest cost.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a.cfg = cfg
			level := cfg.Log.Level
			if cmd.Flags().Changed("log-level") {
				level = a.logLevel
			}
			a.logger, err = logging.NewConsole(level)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newParseCmd(a), newPlanCmd(a))
	return root
}

// ports returns the built-in directory, or the configured ports file.
func (a *app) ports() (manifest.Ports, error) {
	if a.cfg == nil || a.cfg.PortsFile == "" {
		return manifest.DefaultPorts(), nil
	}
	f, err := os.Open(a.cfg.PortsFile)
	if err != nil {
		return nil, fmt.Errorf("open ports file: %w", err)
	}
	defer f.Close()
	return manifest.LoadPorts(f)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
