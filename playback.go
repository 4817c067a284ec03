package exercise

import (
	"context"
	"errors"
)

// PlayOption speaks the text of a single option. It returns ErrPlaybackBusy
// when another playback is in progress; requests are never queued.
// Speaker failures are reported as playback error events.
func (r *Runtime) PlayOption(ctx context.Context, optionID string) error {
	sp, err := r.speakable()
	if err != nil {
		return err
	}
	text, ok := sp.SpeechFor(r.def, optionID)
	if !ok {
		return ErrNothingToPlay
	}
	return r.play(ctx, []string{text}, PlaybackPayload{OptionID: optionID, Items: 1})
}

// PlayAll speaks every option in order under the same lock as PlayOption.
func (r *Runtime) PlayAll(ctx context.Context) error {
	sp, err := r.speakable()
	if err != nil {
		return err
	}
	texts := sp.SpeechAll(r.def)
	if len(texts) == 0 {
		return ErrNothingToPlay
	}
	return r.play(ctx, texts, PlaybackPayload{All: true, Items: len(texts)})
}

// StopPlayback cancels the playback in progress, if any.
func (r *Runtime) StopPlayback() {
	r.mu.Lock()
	cancel := r.playCancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if r.speaker != nil {
		r.cancelSpeaker()
	}
}

// Playing reports whether the playback lock is held.
func (r *Runtime) Playing() bool {
	if r.playMu.TryLock() {
		r.playMu.Unlock()
		return false
	}
	return true
}

func (r *Runtime) speakable() (Speakable, error) {
	if r.speaker == nil {
		return nil, ErrNoSpeaker
	}
	sp, ok := r.variant.(Speakable)
	if !ok {
		return nil, ErrNotImplemented
	}
	if r.Phase() == PhaseDestroyed {
		return nil, ErrRuntimeDestroyed
	}
	return sp, nil
}

func (r *Runtime) play(ctx context.Context, texts []string, payload PlaybackPayload) error {
	if !r.playMu.TryLock() {
		return ErrPlaybackBusy
	}
	defer r.playMu.Unlock()

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.state.phase == PhaseDestroyed {
		r.mu.Unlock()
		return ErrRuntimeDestroyed
	}
	r.playCancel = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.playCancel = nil
		r.mu.Unlock()
	}()

	r.dispatch(ctx, []Event{NewEvent(EventPlaybackStarted, payload)})

	opts := SpeechOptions{Locale: r.localizer.Locale(), Rate: 1}
	for _, text := range texts {
		if pctx.Err() != nil {
			break
		}
		err := r.speak(pctx, text, opts)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || pctx.Err() != nil {
			break
		}
		r.handleError(ctx, ErrorKindPlayback, "playback", err)
		break
	}

	payload.Canceled = pctx.Err() != nil
	if r.Phase() != PhaseDestroyed {
		r.dispatch(ctx, []Event{NewEvent(EventPlaybackEnded, payload)})
	}
	return nil
}

func (r *Runtime) speak(ctx context.Context, text string, opts SpeechOptions) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoveredError(rec)
		}
	}()
	return r.speaker.Play(ctx, text, opts)
}

func (r *Runtime) cancelSpeaker() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Speaker cancel panicked", "error", recoveredError(rec))
		}
	}()
	r.speaker.Cancel()
}
