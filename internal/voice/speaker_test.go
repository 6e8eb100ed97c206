package voice

import (
	"sync"
	"testing"
	"time"
)

// newTestSpeaker builds a CommandSpeaker whose run function records
// utterances instead of spawning a process.
func newTestSpeaker(delay time.Duration) (*CommandSpeaker, func() []string) {
	var mu sync.Mutex
	var spoken []string

	s := &CommandSpeaker{
		queue: make(chan string, speakQueueDepth),
		done:  make(chan struct{}),
		run: func(text string) error {
			time.Sleep(delay)
			mu.Lock()
			spoken = append(spoken, text)
			mu.Unlock()
			return nil
		},
	}
	go s.worker()

	return s, func() []string {
		mu.Lock()
		defer mu.Unlock()
		out := make([]string, len(spoken))
		copy(out, spoken)
		return out
	}
}

func TestCommandSpeakerSpeaksInOrder(t *testing.T) {
	s, spoken := newTestSpeaker(0)
	s.Speak("box box box")
	s.Speak("push now")
	s.Close()

	got := spoken()
	if len(got) != 2 || got[0] != "box box box" || got[1] != "push now" {
		t.Errorf("spoken = %v", got)
	}
}

func TestCommandSpeakerIgnoresBlank(t *testing.T) {
	s, spoken := newTestSpeaker(0)
	s.Speak("   ")
	s.Speak("")
	s.Close()
	if got := spoken(); len(got) != 0 {
		t.Errorf("spoken = %v, want none", got)
	}
}

func TestCommandSpeakerDropsWhenSaturated(t *testing.T) {
	// A slow worker plus a burst beyond queue depth: Speak must return
	// immediately and the overflow must be dropped, not delivered late.
	s, spoken := newTestSpeaker(20 * time.Millisecond)

	start := time.Now()
	for i := 0; i < speakQueueDepth*3; i++ {
		s.Speak("lap time")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Speak blocked for %v", elapsed)
	}
	s.Close()

	if got := spoken(); len(got) > speakQueueDepth+1 {
		t.Errorf("delivered %d utterances, want at most %d", len(got), speakQueueDepth+1)
	}
}

func TestCommandSpeakerCloseIdempotent(t *testing.T) {
	s, _ := newTestSpeaker(0)
	s.Close()
	s.Close()
}
