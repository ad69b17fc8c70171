// The runner drives one video generation from the command line and keeps
// retrying until a video is produced. Rate-limited runs wait out the
// interval and try again; with -retry-all every failure is retried.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"video_automation/composer"
	"video_automation/config"
	"video_automation/pipeline"
	"video_automation/services"
	"video_automation/topics"
)

func main() {
	topic := flag.String("topic", "", "video topic (empty means research trending topics)")
	category := flag.String("category", "", "topic focus area for research")
	publish := flag.Bool("publish", false, "upload and publish the finished video")
	interval := flag.Duration("interval", time.Hour, "wait between retry attempts")
	retryAll := flag.Bool("retry-all", false, "retry every failure, not just rate limits")
	maxAttempts := flag.Int("max-attempts", 0, "stop after this many attempts (0 means unbounded)")
	flag.Parse()

	cfg := config.Load()
	gen := buildGenerator(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.RunUntilSuccess(ctx, gen, *topic, *category, *publish, pipeline.RetryPolicy{
		Interval:         *interval,
		MaxAttempts:      *maxAttempts,
		RetryAllFailures: *retryAll,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("interrupted, stopping")
			os.Exit(130)
		}
		log.Printf("❌ giving up: %v", err)
		if report != nil {
			log.Printf("last run errors: %s", report.FlattenedErrors())
		}
		os.Exit(1)
	}

	printSuccessSummary(report)
}

func printSuccessSummary(report *pipeline.Report) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("🎉 VIDEO CREATED SUCCESSFULLY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run ID:  %s\n", report.RunID)
	fmt.Printf("Topic:   %s\n", report.Topic)
	if report.ServiceFocus != "" {
		fmt.Printf("Focus:   %s\n", report.ServiceFocus)
	}
	if path, ok := report.Artifacts[pipeline.StageComposition]; ok {
		fmt.Printf("Video:   %s\n", path)
	}
	for dest, url := range report.PublishedURLs {
		fmt.Printf("%s: %s\n", dest, url)
	}
	if len(report.Errors) > 0 {
		fmt.Printf("Warnings (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	fmt.Printf("Elapsed: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	fmt.Println(strings.Repeat("=", 60))
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
