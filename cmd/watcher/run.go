package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"burnwatch/internal/chain"
	"burnwatch/internal/config"
	"burnwatch/internal/model"
	"burnwatch/internal/notify"
	"burnwatch/internal/retry"
	"burnwatch/internal/watcher"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func runWatcher(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	networks, err := cfg.Descriptors()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	httpClient := &http.Client{Transport: transport, Timeout: 30 * time.Second}

	var audit notify.Notifier
	if cfg.EventsOut != "" {
		audit = notify.NewJSONL(cfg.EventsOut)
	}

	watchCfg := watcher.Config{
		PollInterval: cfg.PollInterval,
		Retry:        retry.Policy{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay},
	}

	watchers := make([]*watcher.Watcher, 0, len(networks))
	closers := make([]io.Closer, 0, len(networks)+2)
	for _, network := range networks {
		client, err := chain.NewClient(ctx, chain.Options{
			Network:    network.Name,
			Endpoint:   network.RPCEndpoint,
			AuthKey:    network.RPCAuthKey,
			RateLimit:  network.RPCRateLimit,
			Burst:      network.RPCBurst,
			HTTPClient: httpClient,
		})
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			_ = store.Close()
			return fmt.Errorf("connect rpc for %s: %w", network.Name, err)
		}
		closers = append(closers, client)

		notifier, err := buildNotifier(cfg, network, httpClient, audit, logger)
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			_ = store.Close()
			return err
		}

		watchers = append(watchers, watcher.New(network, watchCfg, client, store, notifier, logger))
	}
	closers = append(closers, store, closerFunc(func() error {
		transport.CloseIdleConnections()
		return nil
	}))

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	logger.Info("watcher start",
		zap.String("db_driver", cfg.DBDriver),
		zap.Int("networks", len(networks)),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("retry_delay", cfg.RetryDelay),
		zap.Bool("telegram", cfg.Telegram.BotToken != ""),
		zap.String("events_out", cfg.EventsOut),
	)

	return watcher.NewSupervisor(logger, watchers, closers...).Run(ctx)
}

// buildNotifier fans out to Telegram (when configured), the log and the audit file.
func buildNotifier(cfg config.Config, network model.NetworkDescriptor, httpClient *http.Client, audit notify.Notifier, logger *zap.Logger) (notify.Notifier, error) {
	targets := []notify.Notifier{notify.NewLog(logger.With(zap.String("network", network.Name)), network.AmountDecimals)}
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			APIURL:   cfg.Telegram.APIURL,
			Decimals: network.AmountDecimals,
			Client:   httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		targets = append(targets, tg)
	}
	if audit != nil {
		targets = append(targets, audit)
	}
	return notify.NewMulti(logger, targets...), nil
}

func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", zap.Error(err))
	}
}
