// Package main is the production entry point for GoSketch.
//
// GoSketch is a full-window audio-reactive visual player. The first click
// enters fullscreen and starts the first patch; every later click switches
// to the next one.
//
// Build:
//
//	go build -o build/gosketch ./cmd
//
// Run:
//
//	./build/gosketch
//	GOSKETCH_SIGNAL=synth ./build/gosketch
//	GOSKETCH_HEADLESS=1 GOSKETCH_FRAMES=300 GOSKETCH_CLICK_EVERY=2s ./build/gosketch
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	fyneapp "fyne.io/fyne/v2/app"

	fynedisplay "github.com/tejashwikalptaru/gosketch/internal/adapter/display/fyne"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/display/headless"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/device"
	"github.com/tejashwikalptaru/gosketch/internal/app"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
)

func main() {
	// Create default configuration
	config := app.DefaultConfig()

	lg := logger.NewLogger(logger.Config{Level: config.LogLevel, Format: config.LogFormat})

	capture, err := device.Open(lg, device.Options{
		Kind:       config.Signal,
		SampleRate: config.SampleRate,
		BPM:        config.BPM,
	})
	if err != nil {
		log.Fatalf("Failed to open audio input: %v", err)
	}
	config.Capture = capture

	if config.Headless {
		config.Display = headless.New(lg, headless.Config{
			Frames:     config.HeadlessFrames,
			ClickEvery: config.ClickEvery,
		})
	} else {
		windowCfg := fynedisplay.DefaultConfig()
		windowCfg.Title = config.AppName
		config.Display = fynedisplay.New(lg, fyneapp.NewWithID(config.AppID), windowCfg)
	}

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run application (blocks until the window closed)
	if err := application.Run(ctx); err != nil {
		lg.Error("application error", slog.Any("error", err))
	}
}
