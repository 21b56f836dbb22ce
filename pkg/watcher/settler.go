package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/ritzau/deps-minimizer/pkg/config"
)

// Settler waits until a freshly written file is visible to other processes
// (the build tool, editor integrations) before the next build is started.
type Settler interface {
	// Watch registers interest in path. It must be called before the
	// write that Settle waits for.
	Watch(path string) error
	// Settle blocks until the last write to path has settled.
	Settle(ctx context.Context, path string) error
	Close() error
}

// New creates the settler selected by s.Mode.
func New(s config.SettleSettings) (Settler, error) {
	switch s.Mode {
	case config.SettleFixed, "":
		return NewFixedDelay(s.Delay), nil
	case config.SettleFSNotify:
		return NewFileWatcher(s.Delay, s.Quiet)
	default:
		return nil, fmt.Errorf("unknown settle mode %q", s.Mode)
	}
}

// FixedDelay sleeps for a fixed duration after every write
type FixedDelay struct {
	Delay time.Duration
}

// NewFixedDelay creates a settler waiting delay after every write
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{Delay: delay}
}

func (f *FixedDelay) Watch(path string) error { return nil }
func (f *FixedDelay) Close() error            { return nil }

func (f *FixedDelay) Settle(ctx context.Context, path string) error {
	if f.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(f.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
