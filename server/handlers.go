package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"video_automation/pipeline"
	"video_automation/store"
)

type generateFunc func(ctx context.Context, topic, category string, publish bool) *pipeline.Report

// app wires the HTTP surface to the run store and the pipeline entry point.
type app struct {
	store    store.RunStore
	generate generateFunc
}

type generateRequest struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Publish  bool   `json:"publish"`
}

type generateResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (a *app) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/generate", a.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/api/cron/daily", a.handleCronDaily).Methods(http.MethodPost)
	r.HandleFunc("/api/runs", a.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}", a.handleGetRun).Methods(http.MethodGet)
	return r
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate accepts a run request, answers immediately, and executes
// the pipeline in the background.
func (a *app) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	a.startRun(w, req)
}

// handleCronDaily is the scheduled entry point: fresh research, publish on.
func (a *app) handleCronDaily(w http.ResponseWriter, r *http.Request) {
	a.startRun(w, generateRequest{Publish: true})
}

func (a *app) startRun(w http.ResponseWriter, req generateRequest) {
	run := &store.Run{
		ID:        uuid.New().String()[:8],
		Topic:     req.Topic,
		Category:  req.Category,
		Publish:   req.Publish,
		Status:    store.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := a.store.Insert(context.Background(), run); err != nil {
		log.Printf("inserting run: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create run"})
		return
	}

	// Snapshot the response before the background goroutine starts
	// mutating the run.
	resp := generateResponse{
		RunID:   run.ID,
		Status:  run.Status,
		Message: "video generation started",
	}
	go a.execute(run)

	writeJSON(w, http.StatusAccepted, resp)
}

// execute runs the pipeline and records the outcome on the stored run.
func (a *app) execute(run *store.Run) {
	ctx := context.Background()

	now := time.Now()
	run.Status = store.StatusProcessing
	run.StartedAt = &now
	if err := a.store.Update(ctx, run); err != nil {
		log.Printf("updating run %s: %v", run.ID, err)
	}

	report := a.generate(ctx, run.Topic, run.Category, run.Publish)

	done := time.Now()
	run.CompletedAt = &done
	run.Topic = report.Topic
	run.Artifacts = report.Artifacts
	run.PublishedURLs = report.PublishedURLs
	run.Errors = report.Errors
	run.VideoPath = report.Artifacts[pipeline.StageComposition]
	if report.Success {
		run.Status = store.StatusCompleted
	} else {
		run.Status = store.StatusFailed
	}
	if err := a.store.Update(ctx, run); err != nil {
		log.Printf("updating run %s: %v", run.ID, err)
	}
	log.Printf("run %s finished: %s", run.ID, run.Status)
}

func (a *app) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := a.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *app) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := a.store.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
