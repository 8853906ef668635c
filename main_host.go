//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	"watch/app"
	"watch/hal"
	"watch/internal/buildinfo"
	"watch/internal/config"
)

func main() {
	var hcfg hal.HeadlessConfig
	var configPath string
	var version bool
	flag.StringVar(&configPath, "config", "", "YAML config file (defaults when empty).")
	flag.BoolVar(&hcfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 200, "Step rate in headless mode.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N steps in headless mode (0 = run forever).")
	flag.BoolVar(&version, "version", false, "Print the build stamp and exit.")
	flag.Parse()

	if version {
		fmt.Println("watch", buildinfo.String())
		return
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fatal(err)
		}
	}
	appCfg, err := cfg.App()
	if err != nil {
		fatal(err)
	}
	hostCfg, err := cfg.Host()
	if err != nil {
		fatal(err)
	}
	newApp := func(h hal.HAL) func() error {
		h.Logger().WriteLineString("watch " + buildinfo.String())
		return app.NewWithConfig(h, appCfg)
	}

	if hcfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = hal.RunHeadless(ctx, hostCfg, newApp, hcfg)
		stop()
		if errors.Is(err, context.Canceled) {
			return
		}
	} else {
		err = hal.RunWindow(hostCfg, newApp)
	}

	if errors.Is(err, hal.ErrRestart) {
		restart()
	}
	if err != nil {
		fatal(err)
	}
}

// restart runs a fresh copy of the (possibly updated) binary and exits
// with its status.
func restart() {
	exe, err := os.Executable()
	if err != nil {
		fatal(fmt.Errorf("restart: %w", err))
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fatal(fmt.Errorf("restart: %w", err))
	}
	os.Exit(0)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
