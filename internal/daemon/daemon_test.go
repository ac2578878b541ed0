package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relbuilder/internal/config"
	"git.home.luguber.info/inful/relbuilder/internal/history"
)

func daemonConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Repository: config.Repository{URL: "https://example.com/proj.git", Name: "proj"},
		Pipelines: []config.Pipeline{
			{
				Name:     "windows-release",
				Triggers: config.TriggerConfig{Manual: true, Push: &config.PushFilter{Branches: []string{"main"}}},
				Steps:    []config.Step{{Name: "noop", Command: "true"}},
			},
			{
				Name:     "cron-only",
				Triggers: config.TriggerConfig{Cron: "0 4 * * *"},
				Steps:    []config.Step{{Name: "noop", Command: "true"}},
			},
		},
		Daemon: config.DaemonConfig{
			DataDir:      t.TempDir(),
			ListenAddr:   "127.0.0.1:0",
			Workers:      1,
			QueueSize:    8,
			HistoryLimit: 10,
		},
	}
	return cfg
}

func TestNewDaemonAcquiresInstanceLock(t *testing.T) {
	cfg := daemonConfig(t)

	d, err := New(cfg, "")
	require.NoError(t, err)
	defer d.Close()

	// Second instance on the same data dir must be refused.
	_, err = New(cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestDispatchManual(t *testing.T) {
	d, err := New(daemonConfig(t), "")
	require.NoError(t, err)
	defer d.Close()

	id, err := d.DispatchManual("windows-release")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, d.queue.Length())

	_, err = d.DispatchManual("missing")
	require.Error(t, err)

	// cron-only has no manual trigger
	_, err = d.DispatchManual("cron-only")
	require.Error(t, err)
}

func TestHandlePushEnqueuesMatching(t *testing.T) {
	d, err := New(daemonConfig(t), "")
	require.NoError(t, err)
	defer d.Close()

	ids, err := d.HandlePush(PushEvent{Branch: "main"})
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	ids, err = d.HandlePush(PushEvent{Branch: "feature/x"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHTTPDispatchEndpoint(t *testing.T) {
	d, err := New(daemonConfig(t), "")
	require.NoError(t, err)
	defer d.Close()
	s := NewHTTPServer(d)

	body, _ := json.Marshal(map[string]string{"pipeline": "windows-release"})
	req := httptest.NewRequest("POST", "/api/dispatch", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleDispatch(rec, req)

	assert.Equal(t, 202, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["run_id"])

	// Unknown pipeline is rejected.
	body, _ = json.Marshal(map[string]string{"pipeline": "missing"})
	rec = httptest.NewRecorder()
	s.handleDispatch(rec, httptest.NewRequest("POST", "/api/dispatch", bytes.NewReader(body)))
	assert.Equal(t, 422, rec.Code)
}

func TestHTTPStatusEndpoint(t *testing.T) {
	d, err := New(daemonConfig(t), "")
	require.NoError(t, err)
	defer d.Close()
	s := NewHTTPServer(d)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, 200, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Pipelines)
}

func TestHTTPRunEventsEndpoint(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.History = config.HistoryConfig{Enabled: true, Path: ":memory:"}
	d, err := New(cfg, "")
	require.NoError(t, err)
	defer d.Close()
	s := NewHTTPServer(d)

	ctx := context.Background()
	require.NoError(t, d.historyStore.AppendEvent(ctx, "run-1", history.EventRunStarted, nil))
	require.NoError(t, d.historyStore.AppendEvent(ctx, "run-1", history.EventStepFinished,
		[]byte(`{"name":"build","status":"success"}`)))

	req := httptest.NewRequest("GET", "/api/runs/run-1/events", nil)
	req.SetPathValue("id", "run-1")
	rec := httptest.NewRecorder()
	s.handleRunEvents(rec, req)

	assert.Equal(t, 200, rec.Code)
	var evs []runEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evs))
	require.Len(t, evs, 2)
	assert.Equal(t, history.EventRunStarted, evs[0].Type)
	assert.Equal(t, history.EventStepFinished, evs[1].Type)
	assert.JSONEq(t, `{"name":"build","status":"success"}`, string(evs[1].Payload))

	// Runs without recorded events are a 404.
	req = httptest.NewRequest("GET", "/api/runs/nope/events", nil)
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	s.handleRunEvents(rec, req)
	assert.Equal(t, 404, rec.Code)
}

func TestHTTPRunsSinceFilter(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.History = config.HistoryConfig{Enabled: true, Path: ":memory:"}
	d, err := New(cfg, "")
	require.NoError(t, err)
	defer d.Close()
	s := NewHTTPServer(d)

	ctx := context.Background()
	require.NoError(t, d.historyStore.RecordRunStart(ctx, history.RunSummary{
		ID: "old", Pipeline: "windows-release", Trigger: "manual",
		Status: "completed", StartedAt: time.Now().Add(-48 * time.Hour),
	}))
	require.NoError(t, d.historyStore.RecordRunStart(ctx, history.RunSummary{
		ID: "fresh", Pipeline: "windows-release", Trigger: "manual",
		Status: "completed", StartedAt: time.Now().Add(-time.Minute),
	}))

	rec := httptest.NewRecorder()
	s.handleRuns(rec, httptest.NewRequest("GET", "/api/runs?since=1h", nil))
	assert.Equal(t, 200, rec.Code)
	var runs []history.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "fresh", runs[0].ID)

	rec = httptest.NewRecorder()
	s.handleRuns(rec, httptest.NewRequest("GET", "/api/runs?since=bogus", nil))
	assert.Equal(t, 400, rec.Code)
}

func TestReloadConfigReschedules(t *testing.T) {
	cfg := daemonConfig(t)
	d, err := New(cfg, "")
	require.NoError(t, err)
	defer d.Close()

	_, err = d.scheduler.SchedulePipelines(cfg.Pipelines)
	require.NoError(t, err)

	newCfg := daemonConfig(t)
	newCfg.Daemon.DataDir = cfg.Daemon.DataDir
	newCfg.Pipelines[1].Triggers.Cron = "30 2 * * *"
	require.NoError(t, d.ReloadConfig(newCfg))
	assert.Same(t, newCfg, d.config())

	// Data dir changes cannot be applied live.
	moved := daemonConfig(t)
	require.Error(t, d.ReloadConfig(moved))
}
