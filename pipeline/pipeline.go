package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator runs the full workflow: research → brief → clips → title card →
// voiceover → music → composition → upload → social. Mandatory stages (brief,
// clips, composition) abort the run on failure; every other stage records a
// warning and the run continues without its artifact.
type Generator struct {
	Director  Director
	Clips     ClipSynthesizer
	Images    ImageSynthesizer
	Speech    SpeechSynthesizer
	Composer  VideoComposer
	Uploader  Uploader
	Publisher Publisher
	Concepts  ConceptSource

	ScratchDir    string
	ClipDuration  int
	VideoDuration int
	VoiceID       string

	// Services is the consulting-service catalogue topics are aligned to.
	Services       []string
	CompanyWebsite string
}

var knownMoods = map[string]bool{
	"uplifting":     true,
	"dramatic":      true,
	"inspirational": true,
	"exciting":      true,
}

// Run executes one pipeline run. topic and category may be empty; publish
// gates the upload and social stages. The returned Report is never nil.
func (g *Generator) Run(ctx context.Context, topic, category string, publish bool) *Report {
	runID := uuid.New().String()[:8]
	report := newReport(runID)

	log.Println(strings.Repeat("=", 60))
	log.Printf("VIDEO GENERATION RUN %s STARTED", runID)
	log.Println(strings.Repeat("=", 60))

	if err := os.MkdirAll(g.ScratchDir, 0755); err != nil {
		return g.fail(report, StageSetup, err, "could not create scratch directory")
	}

	// Stage 1: topic selection. Optional: research failures fall back to
	// the caller-supplied topic or a rotating stock concept.
	sel := g.selectTopic(ctx, topic, category, report)
	report.Topic = sel.SelectedTopic
	report.ServiceFocus = sel.ServiceAlignment
	report.Artifacts[StageTopic] = sel.SelectedTopic
	log.Printf("Topic: %s", sel.SelectedTopic)
	log.Printf("Service focus: %s", sel.ServiceAlignment)

	// Stage 2: creative brief. Mandatory: the clip prompts come from here.
	log.Println("Generating cinematic clip prompts...")
	prompts, err := g.Director.GeneratePrompts(ctx, sel)
	if err != nil {
		return g.fail(report, StageBrief, err, "creative brief generation failed")
	}
	if len(prompts.ClipPrompts) == 0 {
		return g.fail(report, StageBrief, fmt.Errorf("brief contains no clip prompts"), "creative brief generation failed")
	}
	report.Captions = prompts.Captions
	report.Artifacts[StageBrief] = fmt.Sprintf("%d clip prompts", len(prompts.ClipPrompts))
	log.Printf("✓ Generated prompts for %d clips + title card", len(prompts.ClipPrompts))

	// Stage 3: clip synthesis, all clips in parallel. Mandatory and
	// all-or-nothing; a partial clip set is not a usable product.
	log.Printf("Generating %d video clips in parallel...", len(prompts.ClipPrompts))
	clipPaths, err := g.generateClips(ctx, prompts.ClipPrompts, runID)
	if err != nil {
		return g.fail(report, StageClips, err, "clip generation failed")
	}
	report.Artifacts[StageClips] = strings.Join(clipPaths, ",")
	log.Printf("✓ Generated %d clips", len(clipPaths))

	// Stage 4: title card. Optional: composition proceeds without it.
	titleCardPath := g.generateTitleCard(ctx, sel, runID, report)

	// Stage 5: voiceover. Optional: composition proceeds silent.
	voiceoverPath := g.generateVoiceover(ctx, sel, prompts.ClipPrompts, runID, report)

	// Stage 6: background music. Optional.
	musicPath := g.generateMusic(ctx, sel, runID, report)

	// Stage 7: composition. Mandatory, but a failed full composition
	// falls back to a bare concat of the clips before giving up.
	log.Println("Composing final video...")
	finalPath := filepath.Join(g.ScratchDir, fmt.Sprintf("final_video_%s.mp4", runID))
	out, err := g.Composer.Compose(ctx, ComposeSpec{
		ClipPaths:     clipPaths,
		TitleCardPath: titleCardPath,
		VoiceoverPath: voiceoverPath,
		MusicPath:     musicPath,
		OutputPath:    finalPath,
	})
	if err != nil {
		report.recordError(StageComposition, err)
		log.Printf("⚠️ Composition failed, attempting bare clip merge: %v", err)
		if mergeErr := g.Composer.MergeClips(ctx, clipPaths, finalPath); mergeErr != nil {
			return g.fail(report, StageComposition, mergeErr, "video composition failed")
		}
		out = finalPath
	}
	report.Artifacts[StageComposition] = out
	log.Printf("✓ Final video ready: %s", out)

	// Stage 8: upload for review. Optional, gated by the publish flag.
	if publish && g.Uploader != nil {
		log.Println("Uploading final video...")
		description := buildDescription(sel, prompts.Captions)
		loc, err := g.Uploader.Upload(ctx, out, sel.SelectedTopic, description)
		if err != nil {
			report.recordError(StageUpload, err)
			log.Printf("⚠️ Upload failed: %v", err)
		} else {
			report.PublishedURLs["storage"] = loc
			report.Artifacts[StageUpload] = loc
			log.Printf("✓ Uploaded: %s", loc)
		}
	}

	// Stage 9: social publish. Optional, gated by the publish flag and
	// credential presence.
	if publish && g.Publisher != nil && g.Publisher.Configured() {
		log.Println("Publishing to social...")
		desc := prompts.Captions["youtube"]
		if desc == "" {
			desc = fmt.Sprintf("%s\n\n%s\n\n%s", sel.SelectedTopic, sel.ServiceAlignment, sel.CTA)
		}
		url, err := g.Publisher.Publish(ctx, out, sel.SelectedTopic, desc, extractHashtags(desc))
		if err != nil {
			report.recordError(StageSocial, err)
			log.Printf("⚠️ Social publish failed: %v", err)
		} else {
			report.PublishedURLs["youtube"] = url
			report.Artifacts[StageSocial] = url
			log.Printf("✓ Published: %s", url)
		}
	}

	report.Success = true
	report.Message = report.Summary()
	report.FinishedAt = time.Now().UTC()

	log.Println(strings.Repeat("=", 60))
	log.Printf("RUN %s COMPLETED (%d warnings)", runID, len(report.Errors))
	log.Println(strings.Repeat("=", 60))
	return report
}

func (g *Generator) selectTopic(ctx context.Context, topic, category string, report *Report) *TopicSelection {
	if topic != "" {
		log.Printf("Using provided topic: %s", topic)
		return g.defaultSelection(topic)
	}

	log.Println("Researching trending topics...")
	topics, err := g.Director.ResearchTopics(ctx, category)
	if err == nil {
		log.Printf("Found %d trending topics", len(topics))
		var sel *TopicSelection
		sel, err = g.Director.SelectTopic(ctx, topics, g.Services)
		if err == nil && sel.SelectedTopic != "" {
			return sel
		}
		if err == nil {
			err = fmt.Errorf("selection returned no topic")
		}
	}

	report.recordError(StageTopic, err)
	fallback := "AI-Powered Solutions for Local Businesses"
	if g.Concepts != nil {
		fallback = g.Concepts.FallbackTopic(category)
	}
	log.Printf("⚠️ Topic research failed, using fallback topic: %s", fallback)
	return g.defaultSelection(fallback)
}

func (g *Generator) defaultSelection(topic string) *TopicSelection {
	focus := ""
	if len(g.Services) > 0 {
		focus = g.Services[0]
	}
	return &TopicSelection{
		SelectedTopic:        topic,
		ServiceAlignment:     focus,
		StorytellingApproach: "Direct and engaging",
		EmotionalBeats:       []string{"Problem", "Solution", "Transformation"},
		CTA:                  fmt.Sprintf("Visit %s to learn more", g.CompanyWebsite),
	}
}

// generateClips fans out one synthesis call per prompt and joins on all of
// them. Paths are namespaced by clip index and run ID, so the concurrent
// writers never collide without locking.
func (g *Generator) generateClips(ctx context.Context, prompts []string, runID string) ([]string, error) {
	paths := make([]string, len(prompts))
	errs := make([]error, len(prompts))

	var wg sync.WaitGroup
	for i, prompt := range prompts {
		paths[i] = filepath.Join(g.ScratchDir, fmt.Sprintf("clip_%d_%s.mp4", i+1, runID))
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			errs[i] = g.Clips.GenerateClip(ctx, prompt, g.ClipDuration, paths[i])
		}(i, prompt)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i+1, err)
		}
	}
	return paths, nil
}

func (g *Generator) generateTitleCard(ctx context.Context, sel *TopicSelection, runID string, report *Report) string {
	log.Println("Generating title card...")
	prompt, err := g.Director.TitleCardPrompt(ctx, sel.SelectedTopic, sel.CTA)
	if err == nil {
		path := filepath.Join(g.ScratchDir, fmt.Sprintf("title_card_%s.png", runID))
		if err = g.Images.GenerateImage(ctx, prompt, path); err == nil {
			report.Artifacts[StageTitleCard] = path
			log.Printf("✓ Title card generated: %s", path)
			return path
		}
	}
	report.recordError(StageTitleCard, err)
	log.Printf("⚠️ Title card generation failed, continuing without: %v", err)
	return ""
}

func (g *Generator) generateVoiceover(ctx context.Context, sel *TopicSelection, clipPrompts []string, runID string, report *Report) string {
	log.Println("Generating voiceover...")
	descriptions := make([]string, len(clipPrompts))
	for i, p := range clipPrompts {
		descriptions[i] = fmt.Sprintf("Clip %d: %s", i+1, truncate(p, 100))
	}

	script, err := g.Director.VoiceoverScript(ctx, sel.SelectedTopic, descriptions, g.VideoDuration, sel.CTA)
	if err == nil {
		log.Printf("Voiceover script generated (%d chars)", len(script))
		path := filepath.Join(g.ScratchDir, fmt.Sprintf("voiceover_%s.mp3", runID))
		if err = g.Speech.Synthesize(ctx, script, g.VoiceID, path); err == nil {
			report.Artifacts[StageVoiceover] = path
			log.Printf("✓ Voiceover audio generated: %s", path)
			return path
		}
	}
	report.recordError(StageVoiceover, err)
	log.Printf("⚠️ Voiceover generation failed, continuing silent: %v", err)
	return ""
}

func (g *Generator) generateMusic(ctx context.Context, sel *TopicSelection, runID string, report *Report) string {
	log.Println("Generating background music...")
	mood := "uplifting"
	if len(sel.EmotionalBeats) > 0 && knownMoods[strings.ToLower(sel.EmotionalBeats[0])] {
		mood = strings.ToLower(sel.EmotionalBeats[0])
	}

	prompt, err := g.Director.MusicPrompt(ctx, sel.SelectedTopic, mood, "corporate tech")
	if err == nil {
		path := filepath.Join(g.ScratchDir, fmt.Sprintf("music_%s.mp3", runID))
		if err = g.Speech.SynthesizeEffect(ctx, prompt, g.VideoDuration, path); err == nil {
			report.Artifacts[StageMusic] = path
			log.Printf("✓ Background music generated: %s", path)
			return path
		}
	}
	report.recordError(StageMusic, err)
	log.Printf("⚠️ Music generation failed, continuing without: %v", err)
	return ""
}

func (g *Generator) fail(report *Report, stage string, err error, message string) *Report {
	report.recordError(stage, err)
	report.failure = err
	report.Success = false
	report.Message = message
	report.FinishedAt = time.Now().UTC()
	log.Printf("❌ %s: %v", message, err)
	return report
}

func buildDescription(sel *TopicSelection, captions map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nService Focus: %s\n", sel.SelectedTopic, sel.ServiceAlignment)
	for _, platform := range []string{"instagram", "youtube", "linkedin"} {
		if caption, ok := captions[platform]; ok {
			fmt.Fprintf(&b, "\n%s caption:\n%s\n", platform, caption)
		}
	}
	return b.String()
}

var hashtagRe = regexp.MustCompile(`#(\w+)`)

func extractHashtags(s string) []string {
	var tags []string
	for _, m := range hashtagRe.FindAllStringSubmatch(s, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
