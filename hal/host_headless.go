//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
}

// RunHeadless runs the firmware without opening a window.
//
// It returns ErrRestart when the firmware asks for a restart.
func RunHeadless(ctx context.Context, hcfg HostConfig, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 200
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHostHAL(hcfg)
	defer h.close()
	step := newApp(h)

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := h.step(step); err != nil {
				return err
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

type restarter interface {
	restartRequested() bool
}

// step runs one firmware step and turns a pending update restart into ErrRestart.
func (h *hostHAL) step(step func() error) error {
	if step != nil {
		if err := step(); err != nil {
			return err
		}
	}
	if r, ok := h.upd.(restarter); ok && r.restartRequested() {
		return ErrRestart
	}
	return nil
}
