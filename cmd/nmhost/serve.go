package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tarun-kavipurapu/native-messaging/host"
	"tarun-kavipurapu/native-messaging/pkg/logger"
	"tarun-kavipurapu/native-messaging/pkg/monitor"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the echo host on stdin/stdout",
	Long: `Reads native messaging frames from stdin and writes each message back on
stdout. Logs never go to stdout. The session ends when the browser closes stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitor.New()
	if cfg.MetricsInterval > 0 {
		done := make(chan struct{})
		defer close(done)
		go metrics.LogPeriodic(cfg.MetricsInterval, done)
	}

	logger.Sugar.Infof("Starting host: max_incoming=%d max_outgoing=%d", cfg.MaxIncoming, cfg.MaxOutgoing)
	h := host.New(os.Stdin, os.Stdout, host.Echo,
		host.WithLimits(cfg.Limits()),
		host.WithMetrics(metrics),
	)
	return h.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
