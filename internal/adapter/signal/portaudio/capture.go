// Package portaudio captures microphone input through PortAudio.
package portaudio

import (
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tejashwikalptaru/gosketch/internal/domain"
	"github.com/tejashwikalptaru/gosketch/internal/ports"
)

const backend = "portaudio"

// Default stream settings.
const (
	DefaultSampleRate = 44100
	DefaultBufferSize = 512
)

// Capture is a ports.SampleCapture reading the default input device.
type Capture struct {
	logger     *slog.Logger
	sampleRate int
	bufferSize int

	mu     sync.Mutex
	stream *portaudio.Stream
}

// Compile-time check
var _ ports.SampleCapture = (*Capture)(nil)

// New creates a microphone capture. Nothing is opened until Start.
func New(logger *slog.Logger, sampleRate, bufferSize int) *Capture {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Capture{
		logger:     logger.With(slog.String("adapter", backend)),
		sampleRate: sampleRate,
		bufferSize: bufferSize,
	}
}

// SampleRate returns the stream sample rate in Hz.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

// Start opens a mono input stream and delivers every buffer to sink.
func (c *Capture) Start(sink func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return domain.NewCaptureError(backend, "start", domain.ErrAlreadyInitialized)
	}

	if err := portaudio.Initialize(); err != nil {
		return domain.NewCaptureError(backend, "initialize", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.bufferSize, func(in []float32) {
		sink(in)
	})
	if err != nil {
		_ = portaudio.Terminate()
		return domain.NewCaptureError(backend, "open stream", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return domain.NewCaptureError(backend, "start stream", err)
	}

	c.stream = stream
	c.logger.Info("microphone capture started",
		slog.Int("sample_rate", c.sampleRate),
		slog.Int("buffer_size", c.bufferSize))

	return nil
}

// Stop closes the stream and terminates PortAudio.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	var firstErr error
	if err := c.stream.Stop(); err != nil {
		firstErr = domain.NewCaptureError(backend, "stop stream", err)
	}
	if err := c.stream.Close(); err != nil && firstErr == nil {
		firstErr = domain.NewCaptureError(backend, "close stream", err)
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = domain.NewCaptureError(backend, "terminate", err)
	}
	c.stream = nil

	c.logger.Debug("microphone capture stopped")
	return firstErr
}
