package main

import (
	"fmt"
	"os"
	"strings"

	"tarun-kavipurapu/native-messaging/pkg/config"
	"tarun-kavipurapu/native-messaging/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	logLevel    string
	logFile     string
	maxIncoming string
	maxOutgoing string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nmhost",
	Short: "Browser native messaging host",
	Long: `A native messaging host speaking the browser's length-prefixed JSON protocol
over stdin/stdout, plus tools to encode, decode and inspect frames.

When started by a browser (first argument is an extension origin or a
manifest path) it serves the echo host, same as "nmhost serve".`,
	// Browsers pass the caller origin, and on Windows --parent-window.
	Args:               cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || !launchedByBrowser(args[0]) {
			return cmd.Help()
		}
		logger.Sugar.Infof("Launched by browser: origin=%s", args[0])
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func launchedByBrowser(arg string) bool {
	return strings.HasPrefix(arg, "chrome-extension://") || strings.HasSuffix(arg, ".json")
}

func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		loaded.LogFile = logFile
	}
	if flags.Changed("max-incoming") {
		if loaded.MaxIncoming, err = config.ParseSize(maxIncoming); err != nil {
			return fmt.Errorf("parse --max-incoming: %w", err)
		}
	}
	if flags.Changed("max-outgoing") {
		if loaded.MaxOutgoing, err = config.ParseSize(maxOutgoing); err != nil {
			return fmt.Errorf("parse --max-outgoing: %w", err)
		}
	}

	if err := logger.Init(logger.Options{Level: loaded.LogLevel, File: loaded.LogFile}); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.Sugar.Error(err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", os.Getenv("NMHOST_CONFIG"), "Path to a TOML config file")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Log file; stderr when empty")
	pf.StringVar(&maxIncoming, "max-incoming", "64MiB", "Largest accepted incoming message, 0 for no limit")
	pf.StringVar(&maxOutgoing, "max-outgoing", "1MiB", "Largest outgoing message, 0 for no limit")
}
