// Package main runs GoSketch in an Ebitengine window.
//
// Build:
//
//	go build -o build/gosketch-ebiten ./cmd/gosketch-ebiten
//
// The GOSKETCH_* environment variables select the audio input the same way
// they do for the Fyne build.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ebitendisplay "github.com/tejashwikalptaru/gosketch/internal/adapter/display/ebiten"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/device"
	"github.com/tejashwikalptaru/gosketch/internal/app"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
)

func main() {
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

	windowCfg := ebitendisplay.DefaultConfig()
	windowCfg.Title = config.AppName
	config.Display = ebitendisplay.New(lg, windowCfg)

	application, err := app.NewApplication(config)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		lg.Error("application error", slog.Any("error", err))
	}
}
