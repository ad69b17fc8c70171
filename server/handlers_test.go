package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video_automation/pipeline"
	"video_automation/store"
)

// stubGenerate returns a canned report and signals completion so tests can
// wait for the background goroutine.
func stubGenerate(report *pipeline.Report, done chan<- struct{}) generateFunc {
	return func(ctx context.Context, topic, category string, publish bool) *pipeline.Report {
		r := *report
		if r.Topic == "" {
			r.Topic = topic
		}
		defer close(done)
		return &r
	}
}

func successReport() *pipeline.Report {
	return &pipeline.Report{
		Success: true,
		Topic:   "Smart Menus",
		Artifacts: map[string]string{
			pipeline.StageComposition: "/tmp/final.mp4",
		},
		PublishedURLs: map[string]string{},
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background run did not finish")
	}
}

func TestGenerate_AcceptsAndRunsInBackground(t *testing.T) {
	st := store.NewMemoryStore()
	done := make(chan struct{})
	a := &app{store: st, generate: stubGenerate(successReport(), done)}

	req := httptest.NewRequest(http.MethodPost, "/api/generate",
		strings.NewReader(`{"topic": "Smart Menus", "publish": true}`))
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, store.StatusPending, resp.Status)

	waitDone(t, done)

	// Poll until the goroutine's final update lands.
	require.Eventually(t, func() bool {
		run, err := st.Get(context.Background(), resp.RunID)
		return err == nil && run.Status == store.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	run, err := st.Get(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/final.mp4", run.VideoPath)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.CompletedAt)
}

func TestGenerate_ResponseReportsPendingEvenWhenRunFinishesFast(t *testing.T) {
	// The generate func completes immediately; the 202 body must still be
	// the pre-launch snapshot, not whatever status the background
	// goroutine has reached.
	st := store.NewMemoryStore()
	done := make(chan struct{})
	a := &app{store: st, generate: stubGenerate(successReport(), done)}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)
	waitDone(t, done)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, store.StatusPending, resp.Status)
}

func TestGenerate_EmptyBodyAllowed(t *testing.T) {
	done := make(chan struct{})
	a := &app{store: store.NewMemoryStore(), generate: stubGenerate(successReport(), done)}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	waitDone(t, done)
}

func TestGenerate_BadJSONRejected(t *testing.T) {
	a := &app{store: store.NewMemoryStore(), generate: nil}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCronDaily_PublishesByDefault(t *testing.T) {
	st := store.NewMemoryStore()
	done := make(chan struct{})
	var gotPublish bool
	a := &app{store: st, generate: func(ctx context.Context, topic, category string, publish bool) *pipeline.Report {
		gotPublish = publish
		defer close(done)
		return successReport()
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/cron/daily", nil)
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	waitDone(t, done)
	assert.True(t, gotPublish)
}

func TestGetRun_NotFound(t *testing.T) {
	a := &app{store: store.NewMemoryStore()}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil)
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRun_ReturnsRecord(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Insert(context.Background(), &store.Run{
		ID: "abc123", Topic: "Smart Menus", Status: store.StatusProcessing, CreatedAt: time.Now(),
	}))
	a := &app{store: st}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/abc123", nil)
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var run store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "Smart Menus", run.Topic)
	assert.Equal(t, store.StatusProcessing, run.Status)
}

func TestListRuns_RespectsLimit(t *testing.T) {
	st := store.NewMemoryStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, st.Insert(context.Background(), &store.Run{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	a := &app{store: st}

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Runs  []store.Run `json:"runs"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestHealth(t *testing.T) {
	a := &app{store: store.NewMemoryStore()}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestExecute_FailedReportMarksRunFailed(t *testing.T) {
	st := store.NewMemoryStore()
	done := make(chan struct{})
	failed := &pipeline.Report{
		Success:   false,
		Errors:    []string{"brief: api down"},
		Artifacts: map[string]string{},
	}
	a := &app{store: st, generate: stubGenerate(failed, done)}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	a.newRouter().ServeHTTP(rec, req)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	waitDone(t, done)

	require.Eventually(t, func() bool {
		run, err := st.Get(context.Background(), resp.RunID)
		return err == nil && run.Status == store.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}
