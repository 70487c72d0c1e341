package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/galois26/ais-ingester/internal/config"
	"github.com/galois26/ais-ingester/internal/exporter"
	"github.com/galois26/ais-ingester/internal/logging"
	"github.com/galois26/ais-ingester/internal/metrics"
	"github.com/galois26/ais-ingester/internal/sink"
	"github.com/galois26/ais-ingester/internal/source"
	"github.com/galois26/ais-ingester/internal/supervisor"
	"github.com/galois26/ais-ingester/internal/util"
)

type runFlags struct {
	config string
	keys   string
	out    string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured session until it ends",
		Example: `  ais-ingester run
  ais-ingester run --config /config.yml --keys "/secrets/API keys" --out /data/CSV`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.config, "config", "", "path to YAML config (default: built-in sessions)")
	cmd.Flags().StringVar(&f.keys, "keys", "", "API keys file, one per line (overrides api_keys_file)")
	cmd.Flags().StringVar(&f.out, "out", "", "CSV output directory (overrides output.dir)")
	return cmd
}

func run(cmd *cobra.Command, f runFlags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.keys != "" {
		cfg.APIKeysFile = f.keys
	}
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.NewWithWriter(cmd.OutOrStdout(), logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	slog.SetDefault(log)
	log.Info("ais-ingester starting", "version", Version, "sessions", len(cfg.Sessions), "out", cfg.Output.Dir)

	keys, err := config.LoadAPIKeys(cfg.APIKeysFile)
	if err != nil {
		return err
	}
	cfgs, err := cfg.SessionConfigs(keys)
	if err != nil {
		return err
	}

	m := metrics.New()
	srcs, err := supervisor.Build(cfgs, source.Options{
		URL:             cfg.Feed.URL,
		Dialer:          util.NewDialer(cfg.Feed.HandshakeTimeout),
		Sink:            sink.NewCSV(cfg.Output.Dir),
		EnforceDeadline: cfg.Feed.EnforceDeadline,
		ReadLimit:       cfg.Feed.ReadLimit,
		Logger:          log,
		Metrics:         m,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Enable {
		exp := exporter.New(cfg.Metrics, m.Registry)
		l, err := net.Listen("tcp", exp.Addr())
		if err != nil {
			return fmt.Errorf("metrics listen %s: %w", exp.Addr(), err)
		}
		go func() {
			log.Info("metrics listening", "addr", l.Addr().String())
			if err := exp.ServeListener(l); err != nil {
				log.Error("metrics server", "err", err)
			}
		}()
		defer func() {
			if err := exp.Shutdown(context.Background()); err != nil {
				log.Warn("metrics shutdown", "err", err)
			}
		}()
	}

	results := supervisor.Run(ctx, srcs, log)
	sum := supervisor.Summarize(results)
	if sum.AllRejected() {
		log.Error("every session was refused, check the API keys file", "path", cfg.APIKeysFile)
	}
	if snap := m.Dump(); snap != "" {
		log.Debug("metrics snapshot\n" + snap)
	}
	return nil
}
