package notify

import (
	"context"

	"go.uber.org/zap"

	"burnwatch/internal/model"
)

// Notifier delivers a decoded burn event. explorerURL is the transaction
// link prefix of the event's network.
type Notifier interface {
	Notify(ctx context.Context, event model.BurnEvent, explorerURL string) error
}

// Multi fans an event out to every notifier and returns the first failure.
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Notify(ctx context.Context, event model.BurnEvent, explorerURL string) error {
	var firstErr error
	for i, n := range m.notifiers {
		if err := n.Notify(ctx, event, explorerURL); err != nil {
			m.logger.Warn("notifier failed",
				zap.Int("notifier", i),
				zap.String("tx_hash", event.TransactionID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Log writes events to the structured logger.
type Log struct {
	logger   *zap.Logger
	decimals uint8
}

func NewLog(logger *zap.Logger, decimals uint8) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger, decimals: decimals}
}

func (l *Log) Notify(_ context.Context, event model.BurnEvent, explorerURL string) error {
	l.logger.Info("burn event",
		zap.String("network", event.NetworkName),
		zap.String("who", event.SourceAddress),
		zap.String("amount", FormatAmount(event.Amount, l.decimals)),
		zap.String("unwrap_address", event.UnwrapAddress),
		zap.Uint64("block_number", event.BlockNumber),
		zap.String("tx_url", explorerURL+event.TransactionID),
	)
	return nil
}
