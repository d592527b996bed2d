//go:build js

// Package main runs GoSketch in the browser.
//
// Build:
//
//	gopherjs build -o build/web/gosketch.js ./cmd/gosketch-web
//
// Add ?signal=mock to the page URL to skip the microphone prompt.
package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gopherjs/gopherjs/js"

	"github.com/tejashwikalptaru/gosketch/internal/adapter/display/web"
	"github.com/tejashwikalptaru/gosketch/internal/adapter/signal/webaudio"
	"github.com/tejashwikalptaru/gosketch/internal/app"
	"github.com/tejashwikalptaru/gosketch/internal/logger"
)

func main() {
	config := app.DefaultConfig()
	config.LogLevel = logger.ParseLevel(query("log"), config.LogLevel)
	if s := strings.ToLower(query("signal")); s != "" {
		config.Signal = s
		config.UseMockSignal = s == "mock"
	}

	lg := logger.NewLogger(logger.Config{Level: config.LogLevel, Format: config.LogFormat})

	if !config.UseMockSignal {
		capture, err := webaudio.New(lg)
		if err != nil {
			lg.Warn("web audio unavailable", slog.Any("error", err))
		} else {
			config.Capture = capture
			config.SampleRate = capture.SampleRate()
		}
	}

	config.Display = web.New(lg, "gosketch")

	// The browser keeps the page alive; main only has to hand over
	go func() {
		application, err := app.NewApplication(config)
		if err != nil {
			lg.Error("failed to create application", slog.Any("error", err))
			return
		}
		defer application.Shutdown()

		if err := application.Run(context.Background()); err != nil {
			lg.Error("application error", slog.Any("error", err))
		}
	}()
}

// query returns a URL search parameter.
func query(name string) string {
	params := js.Global.Get("URLSearchParams").New(js.Global.Get("location").Get("search"))
	v := params.Call("get", name)
	if v == nil || v == js.Undefined {
		return ""
	}
	return v.String()
}
