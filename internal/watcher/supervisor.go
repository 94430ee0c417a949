package watcher

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Supervisor runs one Watcher per network and owns the shared resources
// (RPC clients, HTTP transport, checkpoint store) they use.
type Supervisor struct {
	watchers []*Watcher
	closers  []io.Closer
	logger   *zap.Logger

	closeOnce sync.Once
}

// NewSupervisor builds a Supervisor. closers are released once, after every
// watcher has stopped, in the order given.
func NewSupervisor(logger *zap.Logger, watchers []*Watcher, closers ...io.Closer) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		watchers: watchers,
		closers:  closers,
		logger:   logger,
	}
}

// Run blocks until every watcher stopped. The first fatal watcher error
// cancels the others and is returned.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.watchers {
		w := w
		g.Go(func() error {
			err := w.Run(gctx)
			if err != nil {
				s.logger.Error("watcher failed", zap.String("network", w.Network().Name), zap.Error(err))
			}
			return err
		})
	}

	s.logger.Info("supervisor started", zap.Int("networks", len(s.watchers)))
	err := g.Wait()
	s.logger.Info("supervisor stopped", zap.Error(err))
	return err
}

func (s *Supervisor) close() {
	s.closeOnce.Do(func() {
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				s.logger.Warn("close resource failed", zap.Error(err))
			}
		}
	})
}
