package voice

import (
	"os/exec"
	"strings"
	"sync"

	"github.com/apex-data/race.engineer/internal/monitoring"
)

// Speaker renders response text as audio. Speak must never block the
// caller; implementations queue or drop.
type Speaker interface {
	Speak(text string)
	Close()
}

// NullSpeaker discards everything. Used when TTS is disabled.
type NullSpeaker struct{}

// Speak discards the text.
func (NullSpeaker) Speak(string) {}

// Close is a no-op.
func (NullSpeaker) Close() {}

// speakQueueDepth bounds pending utterances. Responses arrive seconds
// apart, so a small queue suffices; when it fills, the new utterance is
// dropped rather than delaying the loop that produced it.
const speakQueueDepth = 4

// CommandSpeaker runs an external TTS command (espeak-ng, say, piper) for
// each utterance, from a single worker goroutine fed by a bounded queue.
type CommandSpeaker struct {
	queue chan string
	done  chan struct{}
	once  sync.Once

	// run executes one utterance; replaced in tests.
	run func(text string) error
}

// NewCommandSpeaker starts the worker. The command receives the utterance
// as its final argument, e.g. NewCommandSpeaker("espeak-ng", "-s", "170").
func NewCommandSpeaker(name string, args ...string) *CommandSpeaker {
	s := &CommandSpeaker{
		queue: make(chan string, speakQueueDepth),
		done:  make(chan struct{}),
		run: func(text string) error {
			return exec.Command(name, append(args, text)...).Run()
		},
	}
	go s.worker()
	return s
}

func (s *CommandSpeaker) worker() {
	defer close(s.done)
	for text := range s.queue {
		if err := s.run(text); err != nil {
			monitoring.Logf("voice: tts command failed: %v", err)
		}
	}
}

// Speak enqueues the text, dropping it when the queue is full.
func (s *CommandSpeaker) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	select {
	case s.queue <- text:
	default:
		monitoring.Debugf("voice: speak queue full, dropping utterance")
	}
}

// Close stops the worker after the queue drains.
func (s *CommandSpeaker) Close() {
	s.once.Do(func() { close(s.queue) })
	<-s.done
}
