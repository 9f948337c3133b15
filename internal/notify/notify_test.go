package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	require.NoError(t, p.Publish(context.Background(), StateChange{Transition: TransitionStarted}))
	require.NoError(t, p.Close())
}

func TestNewNATSPublisher_RequiresConfig(t *testing.T) {
	_, err := NewNATSPublisher(context.Background(), "", "focusd.state")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestStateChangeWireFormat(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	change := StateChange{
		Transition: TransitionStarted,
		Status: focus.StatusSnapshot{
			Blocking:      true,
			SessionLabel:  focus.ManualSessionLabel,
			SessionSource: focus.SourceManual,
			TimeRemaining: "0:00",
		},
		Timestamp: at,
	}
	data, err := json.Marshal(change)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "started", wire["transition"])
	status := wire["status"].(map[string]any)
	assert.Equal(t, true, status["is_blocking"])
	assert.Equal(t, "manual", status["session_source"])
}
