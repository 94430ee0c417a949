package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"burnwatch/internal/evmlog"
	"burnwatch/internal/metrics"
	"burnwatch/internal/model"
	"burnwatch/internal/notify"
	"burnwatch/internal/retry"
	"burnwatch/internal/storage"
)

var (
	// ErrChainHeight stops the whole process: the current height could not be
	// fetched within the retry budget.
	ErrChainHeight = errors.New("cannot determine current block height")
	// ErrCheckpointMissing means the contract row vanished or belongs to another network.
	ErrCheckpointMissing = errors.New("checkpoint missing")
)

// Caller sends one JSON-RPC request and decodes its result.
type Caller interface {
	Call(ctx context.Context, req evmlog.Request, result interface{}) error
}

// Config holds the settings shared by every network.
type Config struct {
	PollInterval time.Duration
	Retry        retry.Policy
}

// Watcher polls one network's contract for burn logs and checkpoints progress.
type Watcher struct {
	network  model.NetworkDescriptor
	cfg      Config
	rpc      Caller
	store    storage.CheckpointStore
	notifier notify.Notifier
	logger   *zap.Logger
}

// New builds a Watcher with its dependencies.
func New(network model.NetworkDescriptor, cfg Config, rpc Caller, store storage.CheckpointStore, notifier notify.Notifier, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		network:  network,
		cfg:      cfg,
		rpc:      rpc,
		store:    store,
		notifier: notifier,
		logger: logger.With(
			zap.String("network", network.Name),
			zap.Uint64("network_id", network.NetworkID),
			zap.String("contract", network.ContractAddress),
		),
	}
}

// Network returns the descriptor this watcher was built with.
func (w *Watcher) Network() model.NetworkDescriptor {
	return w.network
}

// Run seeds the checkpoint and then polls until ctx is cancelled.
// It returns nil on cancellation and an error only for fatal conditions.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.store.EnsureSeeded(ctx, w.network.NetworkID, w.network.ContractAddress, w.network.StartBlockHeight); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("seed checkpoint for %s: %w", w.network.Name, err)
	}
	w.logger.Info("watcher started", zap.Uint64("start_block", w.network.StartBlockHeight))

	for {
		if err := w.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if err := retry.Sleep(ctx, w.cfg.PollInterval); err != nil {
			break
		}
	}

	w.logger.Info("watcher stopped")
	return nil
}

// RunCycle performs one poll: read checkpoint, fetch height, scan, notify, advance.
// Scan failures are logged and leave the checkpoint untouched.
func (w *Watcher) RunCycle(ctx context.Context) error {
	log := w.logger.With(zap.String("cycle_id", uuid.NewString()))
	last, ok, err := w.store.Get(ctx, w.network.NetworkID, w.network.ContractAddress)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("read checkpoint failed", zap.Error(err))
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: network %s contract %s", ErrCheckpointMissing, w.network.Name, w.network.ContractAddress)
	}

	current, err := w.currentHeight(ctx, log)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("cannot determine current block height, stopping", zap.Uint64("checkpoint", last), zap.Error(err))
		return fmt.Errorf("%w: network %s: %w", ErrChainHeight, w.network.Name, err)
	}

	toBlock := w.scanBound(current)
	logs, err := w.scan(ctx, log, last, current, toBlock)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.ScanFailures.WithLabelValues(w.network.Name).Inc()
		log.Error("log scan failed, checkpoint kept",
			zap.Uint64("from", last),
			zap.String("to", toBlock.Encode()),
			zap.Error(err),
		)
		return nil
	}

	delivered := w.dispatch(ctx, log, logs)
	if err := ctx.Err(); err != nil {
		return err
	}

	w.advance(ctx, log, last, current)
	metrics.CyclesTotal.WithLabelValues(w.network.Name).Inc()
	log.Info("cycle complete",
		zap.Uint64("from", last),
		zap.String("to", toBlock.Encode()),
		zap.Uint64("current", current),
		zap.Int("logs", len(logs)),
		zap.Int("delivered", delivered),
	)
	return nil
}

func (w *Watcher) scanBound(current uint64) evmlog.BlockRef {
	switch w.network.ScanBound {
	case model.ScanLatest:
		return evmlog.Latest
	case model.ScanHead:
		return evmlog.BlockNumber(current)
	default:
		return evmlog.Finalized
	}
}

func (w *Watcher) currentHeight(ctx context.Context, log *zap.Logger) (uint64, error) {
	return retry.Do(ctx, w.cfg.Retry, func(ctx context.Context, attempt int) (uint64, error) {
		var height hexutil.Uint64
		if err := w.rpc.Call(ctx, evmlog.LatestBlockRequest(), &height); err != nil {
			if ctx.Err() == nil {
				log.Warn("block number request failed",
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", w.cfg.Retry.MaxAttempts),
					zap.Error(err),
				)
			}
			return 0, err
		}
		return uint64(height), nil
	})
}

func (w *Watcher) scan(ctx context.Context, log *zap.Logger, from, current uint64, toBlock evmlog.BlockRef) ([]model.RawLog, error) {
	if w.network.ScanBound == model.ScanHead && current < from {
		return nil, nil
	}

	req := evmlog.LogsFilterRequest(w.network.ContractAddress, w.network.EventTopic, from, toBlock)
	return retry.Do(ctx, w.cfg.Retry, func(ctx context.Context, attempt int) ([]model.RawLog, error) {
		var logs []model.RawLog
		if err := w.rpc.Call(ctx, req, &logs); err != nil {
			if ctx.Err() == nil {
				log.Warn("get logs request failed",
					zap.Uint64("from", from),
					zap.String("to", toBlock.Encode()),
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", w.cfg.Retry.MaxAttempts),
					zap.Error(err),
				)
			}
			return nil, err
		}
		return logs, nil
	})
}

// dispatch decodes and notifies every log independently; failures are skipped.
func (w *Watcher) dispatch(ctx context.Context, log *zap.Logger, logs []model.RawLog) int {
	delivered := 0
	for _, raw := range logs {
		if ctx.Err() != nil {
			return delivered
		}
		if raw.Removed {
			log.Warn("skipping removed log", zap.String("tx_hash", raw.TransactionHash))
			continue
		}

		event, err := evmlog.DecodeBurn(raw, w.network.Name)
		if err != nil {
			metrics.EventFailures.WithLabelValues(w.network.Name, "decode").Inc()
			log.Warn("decode burn log failed",
				zap.String("tx_hash", raw.TransactionHash),
				zap.String("block_number", raw.BlockNumber),
				zap.Error(err),
			)
			continue
		}

		if err := w.notifier.Notify(ctx, event, w.network.ExplorerURL); err != nil {
			metrics.EventFailures.WithLabelValues(w.network.Name, "notify").Inc()
			log.Error("notify burn event failed",
				zap.String("tx_hash", event.TransactionID),
				zap.Uint64("block_number", event.BlockNumber),
				zap.Error(err),
			)
			continue
		}

		metrics.EventsNotified.WithLabelValues(w.network.Name).Inc()
		log.Info("burn event delivered",
			zap.String("tx_hash", event.TransactionID),
			zap.Uint64("block_number", event.BlockNumber),
			zap.String("amount", event.Amount.String()),
		)
		delivered++
	}
	return delivered
}

// advance records current as scanned. A height below the checkpoint is not written.
func (w *Watcher) advance(ctx context.Context, log *zap.Logger, last, current uint64) {
	if current < last {
		log.Warn("chain height behind checkpoint, not rewinding",
			zap.Uint64("checkpoint", last),
			zap.Uint64("current", current),
		)
		return
	}
	if err := w.store.Set(ctx, w.network.ContractAddress, current); err != nil {
		log.Error("write checkpoint failed", zap.Uint64("height", current), zap.Error(err))
		return
	}
	metrics.CheckpointHeight.WithLabelValues(w.network.Name).Set(float64(current))
}
