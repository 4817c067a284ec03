package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/GoCodeAlone/exercise"
)

// consoleSpeaker prints speech text instead of synthesizing audio.
type consoleSpeaker struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *consoleSpeaker) Play(ctx context.Context, text string, opts exercise.SpeechOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "  (%s) %s\n", opts.Locale, text)
	return err
}

func (s *consoleSpeaker) Cancel() {}

// consoleAnnouncer prints announcements; assertive ones are marked.
type consoleAnnouncer struct {
	mu sync.Mutex
	w  io.Writer
}

func (a *consoleAnnouncer) Announce(message string, priority exercise.Priority) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if priority == exercise.PriorityAssertive {
		fmt.Fprintf(a.w, "!! %s\n", message)
		return
	}
	fmt.Fprintf(a.w, "-- %s\n", message)
}
