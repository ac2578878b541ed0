package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relbuilder/internal/config"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	err := p.Publish(context.Background(), RunEvent{Type: TypeRunStarted, RunID: "r1"})
	assert.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestNewNATSPublisherDisabled(t *testing.T) {
	_, err := NewNATSPublisher(config.EventsConfig{Enabled: false})
	require.Error(t, err)
}

func TestRunEventMarshal(t *testing.T) {
	ev := RunEvent{
		Type:      TypeRunCompleted,
		RunID:     "3f2a",
		Pipeline:  "windows-release",
		Trigger:   "cron",
		Status:    "completed",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run.completed", got["type"])
	assert.Equal(t, "windows-release", got["pipeline"])
	// omitempty keeps failed-run-only fields out of success payloads
	_, hasErr := got["error"]
	assert.False(t, hasErr)
	_, hasStep := got["step"]
	assert.False(t, hasStep)
}
