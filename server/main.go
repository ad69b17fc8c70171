// The server exposes the video pipeline over HTTP: kick off a run, check
// its status, list recent runs. Generation happens in the background; the
// API answers immediately with a run ID.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"video_automation/composer"
	"video_automation/config"
	"video_automation/pipeline"
	"video_automation/services"
	"video_automation/store"
	"video_automation/topics"
)

func main() {
	cfg := config.Load()

	runStore := buildStore(cfg)
	gen := buildGenerator(cfg)

	a := &app{
		store: runStore,
		generate: func(ctx context.Context, topic, category string, publish bool) *pipeline.Report {
			return gen.Run(ctx, topic, category, publish)
		},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.newRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("video automation server listening on :%s (%s)", cfg.Port, cfg.Environment)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func buildStore(cfg *config.Config) store.RunStore {
	if cfg.MongoURI == "" {
		log.Println("MONGODB_URI not set, using in-memory run store")
		return store.NewMemoryStore()
	}

	s, err := store.NewMongoStore(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Printf("⚠ mongodb unavailable (%v), falling back to in-memory run store", err)
		return store.NewMemoryStore()
	}
	log.Printf("connected to mongodb database %s", cfg.MongoDatabase)
	return s
}

func buildGenerator(cfg *config.Config) *pipeline.Generator {
	return &pipeline.Generator{
		Director:  services.NewClaudeService(cfg),
		Clips:     services.NewVeoService(cfg),
		Images:    services.NewImagenService(cfg),
		Speech:    services.NewElevenLabsService(cfg),
		Composer:  composer.New(),
		Uploader:  services.NewDriveUploader(cfg),
		Publisher: services.NewHubSpotService(cfg),
		Concepts:  topics.New(),

		ScratchDir:    cfg.ScratchDir,
		ClipDuration:  cfg.ClipDuration,
		VideoDuration: cfg.VideoDuration,
		VoiceID:       cfg.VoiceID,

		Services: []string{
			"AI consulting and custom chatbots",
			"Data analytics dashboards",
			"Workflow automation",
			"Tourism technology solutions",
		},
		CompanyWebsite: cfg.CompanyWebsite,
	}
}
