package exercise

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaybackRequiresSpeaker(t *testing.T) {
	t.Parallel()
	rt := running(t, fakeDefinition())

	require.ErrorIs(t, rt.PlayOption(context.Background(), "a"), ErrNoSpeaker)
	require.ErrorIs(t, rt.PlayAll(context.Background()), ErrNoSpeaker)
}

func TestPlayOption(t *testing.T) {
	t.Parallel()
	speaker := newBlockingSpeaker()
	close(speaker.release)
	rt := running(t, fakeDefinition(), WithAudioSpeaker(speaker))

	require.NoError(t, rt.PlayOption(context.Background(), "c"))
	assert.Equal(t, []string{"cherry"}, speaker.played)
	require.ErrorIs(t, rt.PlayOption(context.Background(), "zzz"), ErrNothingToPlay)

	assert.Equal(t, 1, rt.events.count(EventPlaybackStarted))
	ev, ok := rt.events.last(EventPlaybackEnded)
	require.True(t, ok)
	assert.Equal(t, PlaybackPayload{OptionID: "c", Items: 1}, ev.Payload)
	assert.False(t, rt.Playing())
}

func TestPlaybackIsExclusive(t *testing.T) {
	t.Parallel()
	speaker := newBlockingSpeaker()
	rt := running(t, fakeDefinition(), WithAudioSpeaker(speaker))

	done := make(chan error, 1)
	go func() { done <- rt.PlayAll(context.Background()) }()
	assert.Equal(t, "apple", waitFor(t, speaker.started))
	assert.True(t, rt.Playing())

	require.ErrorIs(t, rt.PlayOption(context.Background(), "b"), ErrPlaybackBusy)
	require.ErrorIs(t, rt.PlayAll(context.Background()), ErrPlaybackBusy)

	rt.StopPlayback()
	require.NoError(t, <-done)
	assert.False(t, rt.Playing())

	speaker.mu.Lock()
	assert.Equal(t, []string{"apple"}, speaker.played, "remaining items are skipped after stop")
	speaker.mu.Unlock()

	ev, ok := rt.events.last(EventPlaybackEnded)
	require.True(t, ok)
	assert.Equal(t, PlaybackPayload{All: true, Items: 3, Canceled: true}, ev.Payload)
}

func TestPlayAllSpeaksEveryOption(t *testing.T) {
	t.Parallel()
	speaker := newBlockingSpeaker()
	close(speaker.release)
	rt := running(t, fakeDefinition(), WithAudioSpeaker(speaker))

	require.NoError(t, rt.PlayAll(context.Background()))
	assert.Equal(t, []string{"apple", "bread", "cherry"}, speaker.played)
}

func TestSpeakerFailureIsReported(t *testing.T) {
	t.Parallel()
	speaker := newBlockingSpeaker()
	speaker.err = errors.New("audio device busy")
	rt := running(t, fakeDefinition(), WithAudioSpeaker(speaker))

	require.NoError(t, rt.PlayAll(context.Background()))
	assert.Equal(t, []string{"apple"}, speaker.played)

	errs := rt.events.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorKindPlayback, errs[0].Kind)
	assert.ErrorIs(t, rt.State().Error, ErrPlayback)
	assert.False(t, rt.Playing())
}

func TestPlaybackNeedsSpeakableVariant(t *testing.T) {
	t.Parallel()
	variant := &nonSpeakingVariant{}
	rt, err := NewRuntime(fakeDefinition(), DefaultConfig(), variant,
		WithAudioSpeaker(newBlockingSpeaker()), WithTickSource(NewManualTickSource()))
	require.NoError(t, err)
	t.Cleanup(rt.Destroy)

	require.ErrorIs(t, rt.PlayAll(context.Background()), ErrNotImplemented)
}

// nonSpeakingVariant exposes only the Variant methods of fakeVariant.
type nonSpeakingVariant struct{ inner fakeVariant }

func (v *nonSpeakingVariant) Type() string { return fakeType }
func (v *nonSpeakingVariant) ValidateAnswer(ctx context.Context, def *Definition, a Answer) (ValidationResult, error) {
	return v.inner.ValidateAnswer(ctx, def, a)
}
func (v *nonSpeakingVariant) CalculateScore(ctx context.Context, def *Definition, a Answer) (float64, error) {
	return v.inner.CalculateScore(ctx, def, a)
}
func (v *nonSpeakingVariant) Project(def *Definition) Projection { return v.inner.Project(def) }
func (v *nonSpeakingVariant) CurrentAnswer(def *Definition, selected []string) Answer {
	return v.inner.CurrentAnswer(def, selected)
}
