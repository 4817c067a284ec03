package exercise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudEvent(t *testing.T) {
	t.Parallel()
	event := NewCloudEvent("test.event", "test.source", map[string]any{"k": "v"}, map[string]any{"sessionid": "s-1"})

	require.NoError(t, ValidateCloudEvent(event))
	assert.Equal(t, "test.event", event.Type())
	assert.Equal(t, "test.source", event.Source())
	assert.NotEmpty(t, event.ID())
	assert.Equal(t, "s-1", event.Extensions()["sessionid"])

	var data map[string]any
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, "v", data["k"])
}

func TestToCloudEventKeepsTimestampAndSubject(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{Kind: EventPaused, Payload: LifecyclePayload{ExerciseID: "ex", From: PhaseRunning, To: PhasePaused}, Timestamp: at}

	ce := ToCloudEvent(ev, "exercise-runtime", "ex")
	require.NoError(t, ValidateCloudEvent(ce))
	assert.Equal(t, string(EventPaused), ce.Type())
	assert.Equal(t, "ex", ce.Subject())
	assert.True(t, ce.Time().Equal(at))

	var payload map[string]any
	require.NoError(t, ce.DataAs(&payload))
	assert.Equal(t, "running", payload["from"], "phases marshal by name")
	assert.Equal(t, "paused", payload["to"])
}

func TestValidateCloudEventRejectsMissingSource(t *testing.T) {
	t.Parallel()
	event := NewCloudEvent("test.event", "", nil, nil)
	require.Error(t, ValidateCloudEvent(event))
}
