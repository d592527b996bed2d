//go:build js

// Package webaudio captures microphone input in the browser through the Web
// Audio API.
package webaudio

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gopherjs/gopherjs/js"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

const backend = "webaudio"

// DefaultBufferSize is the script processor block size.
const DefaultBufferSize = 1024

// Capture is a ports.SampleCapture backed by getUserMedia.
type Capture struct {
	logger     *slog.Logger
	bufferSize int

	mu        sync.Mutex
	ctx       *js.Object
	stream    *js.Object
	source    *js.Object
	processor *js.Object
	sink      func([]float32)
}

// Compile-time check
var _ ports.SampleCapture = (*Capture)(nil)

// New creates a browser capture. The audio context is created immediately so
// SampleRate is known before Start.
func New(logger *slog.Logger) (*Capture, error) {
	ctor := js.Global.Get("AudioContext")
	if ctor == nil || ctor == js.Undefined {
		ctor = js.Global.Get("webkitAudioContext")
	}
	if ctor == nil || ctor == js.Undefined {
		return nil, domain.NewCaptureError(backend, "create context", domain.ErrCaptureUnavailable)
	}

	return &Capture{
		logger:     logger.With(slog.String("adapter", backend)),
		bufferSize: DefaultBufferSize,
		ctx:        ctor.New(),
	}, nil
}

// SampleRate returns the audio context sample rate.
func (c *Capture) SampleRate() int {
	return c.ctx.Get("sampleRate").Int()
}

// Start asks for microphone access. Samples flow once the user grants it;
// a denial is logged and the analyzer keeps producing silent frames.
func (c *Capture) Start(sink func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink != nil {
		return domain.NewCaptureError(backend, "start", domain.ErrAlreadyInitialized)
	}

	media := js.Global.Get("navigator").Get("mediaDevices")
	if media == nil || media == js.Undefined || media.Get("getUserMedia") == js.Undefined {
		return domain.NewCaptureError(backend, "get user media", domain.ErrCaptureUnavailable)
	}
	c.sink = sink

	constraints := map[string]interface{}{"audio": true, "video": false}
	media.Call("getUserMedia", constraints).
		Call("then", func(stream *js.Object) { c.connect(stream) }).
		Call("catch", func(err *js.Object) {
			c.logger.Warn("microphone access denied",
				slog.Any("error", domain.NewCaptureError(backend, "get user media", errors.New(err.String()))))
		})

	return nil
}

// connect wires the granted stream through a script processor.
func (c *Capture) connect(stream *js.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink == nil {
		// Stopped while the permission prompt was open
		stopTracks(stream)
		return
	}

	if c.ctx.Get("state").String() == "suspended" {
		c.ctx.Call("resume")
	}

	c.stream = stream
	c.source = c.ctx.Call("createMediaStreamSource", stream)
	c.processor = c.ctx.Call("createScriptProcessor", c.bufferSize, 1, 1)
	c.processor.Set("onaudioprocess", func(event *js.Object) {
		data := event.Get("inputBuffer").Call("getChannelData", 0)
		n := data.Length()
		samples := make([]float32, n)
		for i := 0; i < n; i++ {
			samples[i] = float32(data.Index(i).Float())
		}

		c.mu.Lock()
		sink := c.sink
		c.mu.Unlock()
		if sink != nil {
			sink(samples)
		}
	})

	c.source.Call("connect", c.processor)
	c.processor.Call("connect", c.ctx.Get("destination"))

	c.logger.Info("microphone capture started", slog.Int("sample_rate", c.ctx.Get("sampleRate").Int()))
}

// Stop disconnects the graph and releases the microphone.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sink = nil
	if c.processor != nil {
		c.processor.Set("onaudioprocess", nil)
		c.processor.Call("disconnect")
		c.processor = nil
	}
	if c.source != nil {
		c.source.Call("disconnect")
		c.source = nil
	}
	if c.stream != nil {
		stopTracks(c.stream)
		c.stream = nil
	}
	return nil
}

func stopTracks(stream *js.Object) {
	tracks := stream.Call("getTracks")
	for i := 0; i < tracks.Length(); i++ {
		tracks.Index(i).Call("stop")
	}
}
