package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"burnwatch/internal/config"
	"burnwatch/internal/storage"
	"burnwatch/internal/storage/postgres"
	"burnwatch/internal/storage/redis"
	"burnwatch/internal/storage/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:          "watcher",
		Short:        "Multi-chain burn event watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch every configured network until interrupted",
		RunE:  runWatcher,
	}

	runCmd.Flags().String("db-driver", config.DriverSQLite, "checkpoint store (sqlite, postgres, redis)")
	runCmd.Flags().String("db-path", "./persist/checkpoints.db", "SQLite checkpoint file")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().Duration("poll-interval", 60*time.Second, "pause between cycles")
	runCmd.Flags().Int("max-retries", 5, "attempts per RPC request")
	runCmd.Flags().Duration("retry-delay", 5*time.Second, "fixed delay between attempts")
	runCmd.Flags().String("events-out", "", "optional JSONL file receiving every delivered event")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	topicCmd := &cobra.Command{
		Use:   "topic <event definition>",
		Short: "Print the topic hash of an event definition",
		Args:  cobra.ExactArgs(1),
		RunE:  runTopic,
	}

	root.AddCommand(topicCmd)

	checkpointsCmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "List persisted checkpoints",
		RunE:  runCheckpoints,
	}

	checkpointsCmd.Flags().String("db-driver", config.DriverSQLite, "checkpoint store (sqlite, postgres, redis)")
	checkpointsCmd.Flags().String("db-path", "./persist/checkpoints.db", "SQLite checkpoint file")
	checkpointsCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	checkpointsCmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")

	root.AddCommand(checkpointsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.CheckpointStore, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.NewStore(ctx, cfg.PGDSN)
	case config.DriverRedis:
		return redis.NewStore(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown db-driver %q", cfg.DBDriver)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
