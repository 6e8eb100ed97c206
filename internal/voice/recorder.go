// Package voice handles speech capture, transcription, and spoken replies.
// Everything here runs in its own goroutines and hands the main loop plain
// text; the telemetry engine never sees audio.
package voice

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Capture parameters. 16 kHz mono is what speech models expect; the
// minimum length pads out taps that are too short to transcribe.
const (
	SampleRate      = 16000
	FramesPerBuffer = 1024
	MinSamples      = SampleRate / 5 // 200ms
)

// Recorder captures microphone audio between Start and Stop.
type Recorder struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []float32
	samples []float32
	running bool
	done    chan struct{}
}

// NewRecorder initialises the audio subsystem. Call Close when finished
// with the recorder for good.
func NewRecorder() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialise audio: %w", err)
	}
	return &Recorder{buffer: make([]float32, FramesPerBuffer)}, nil
}

// Start begins capturing from the default input device. Calling Start
// while already recording is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	r.samples = make([]float32, 0, SampleRate*30)
	r.done = make(chan struct{})

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, FramesPerBuffer, r.buffer)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	r.stream = stream
	r.running = true
	go r.captureLoop()
	return nil
}

func (r *Recorder) captureLoop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		running := r.running
		stream := r.stream
		r.mu.Unlock()
		if !running || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		r.mu.Lock()
		if r.running {
			chunk := make([]float32, len(r.buffer))
			copy(chunk, r.buffer)
			r.samples = append(r.samples, chunk...)
		}
		r.mu.Unlock()
	}
}

// Stop ends the capture and returns the recorded samples, padded with
// silence when shorter than MinSamples. Returns nil if not recording.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	stream := r.stream
	r.stream = nil
	samples := r.samples
	r.samples = nil
	done := r.done
	r.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
	}
	if stream != nil {
		stream.Stop()
		stream.Close()
	}

	if len(samples) < MinSamples {
		samples = append(samples, make([]float32, MinSamples-len(samples))...)
	}
	return samples
}

// IsRecording reports whether a capture is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close stops any capture and releases the audio subsystem.
func (r *Recorder) Close() {
	r.Stop()
	portaudio.Terminate()
}
