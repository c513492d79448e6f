// Command headlamp drives a lamp from a single pushbutton: a long press
// toggles power, a short press steps brightness. State changes are published
// to MQTT and served over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/headlamp/internal/config"
)

func setupLogger(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewCommand builds the root command. Configuration flags are persistent so
// print-state sees the same pin selection as the daemon.
func NewCommand() *cobra.Command {
	var configPath string
	flagged := config.Default()

	resolve := func(cmd *cobra.Command) (config.Config, error) {
		cfg, err := config.Resolve(configPath, &flagged, cmd.Flags(), os.LookupEnv)
		if err != nil {
			return config.Config{}, err
		}
		if err := setupLogger(cfg.LogLevel); err != nil {
			return config.Config{}, err
		}
		return cfg, nil
	}

	cmd := &cobra.Command{
		Use:   "headlamp",
		Short: "headlamp drives a lamp from a single pushbutton",
		Long: `headlamp polls a pushbutton and drives a lamp's power and brightness outputs.

A long press toggles power. A short press steps brightness by emitting one
click pulse. Powering on replays the stored brightness as click pulses.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "TOML config file path")
	config.BindFlags(flags, &flagged)

	cmd.AddCommand(&cobra.Command{
		Use:   "print-state",
		Short: "Read the button once, print its level and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			return printState(cfg, cmd.OutOrStdout())
		},
	})

	return cmd
}
