package pipeline

import "context"

// Stage names used as keys in Report.Artifacts and in log output.
const (
	StageSetup       = "setup"
	StageTopic       = "topic"
	StageBrief       = "brief"
	StageClips       = "clips"
	StageTitleCard   = "title_card"
	StageVoiceover   = "voiceover"
	StageMusic       = "music"
	StageComposition = "composition"
	StageUpload      = "upload"
	StageSocial      = "social"
)

// Topic is one researched topic candidate.
type Topic struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	VisualAppeal   string `json:"visual_appeal"`
	LocalRelevance string `json:"hawaii_relevance"`
}

// TopicSelection is the creative decision the rest of the run builds on.
type TopicSelection struct {
	SelectedTopic        string   `json:"selected_topic"`
	ServiceAlignment     string   `json:"service_alignment"`
	StorytellingApproach string   `json:"storytelling_approach"`
	EmotionalBeats       []string `json:"emotional_beats"`
	CTA                  string   `json:"cta"`
}

// VideoPrompts carries the generated creative brief: one cinematic prompt per
// clip, the title card design, and per-platform captions.
type VideoPrompts struct {
	ClipPrompts     []string
	TitleCardDesign string
	Captions        map[string]string
}

// ComposeSpec describes one final-video composition. Optional inputs are
// empty strings; the composer degrades gracefully when they are missing.
type ComposeSpec struct {
	ClipPaths     []string
	TitleCardPath string
	VoiceoverPath string
	MusicPath     string
	OutputPath    string
}

// Director produces all text decisions: topic research and selection, the
// creative brief, and the prompts fed to the synthesis services.
type Director interface {
	ResearchTopics(ctx context.Context, focusArea string) ([]Topic, error)
	SelectTopic(ctx context.Context, topics []Topic, services []string) (*TopicSelection, error)
	GeneratePrompts(ctx context.Context, sel *TopicSelection) (*VideoPrompts, error)
	TitleCardPrompt(ctx context.Context, topic, cta string) (string, error)
	VoiceoverScript(ctx context.Context, topic string, clipDescriptions []string, durationSec int, cta string) (string, error)
	MusicPrompt(ctx context.Context, topic, mood, style string) (string, error)
}

// ClipSynthesizer turns one cinematic prompt into a video file at outputPath.
type ClipSynthesizer interface {
	GenerateClip(ctx context.Context, prompt string, durationSec int, outputPath string) error
}

// ImageSynthesizer turns a prompt into an image file at outputPath.
type ImageSynthesizer interface {
	GenerateImage(ctx context.Context, prompt, outputPath string) error
}

// SpeechSynthesizer produces voiceover audio and background-music audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, outputPath string) error
	SynthesizeEffect(ctx context.Context, description string, durationSec int, outputPath string) error
}

// VideoComposer assembles the final deliverable. MergeClips is the bare
// concat fallback used when the full composition fails but clips exist.
type VideoComposer interface {
	Compose(ctx context.Context, spec ComposeSpec) (string, error)
	MergeClips(ctx context.Context, clipPaths []string, outputPath string) error
}

// Uploader copies the finished video to the review destination and returns a
// human-usable location string.
type Uploader interface {
	Upload(ctx context.Context, videoPath, title, description string) (string, error)
}

// Publisher pushes the finished video to a social platform. Configured
// reports whether credentials are present; unconfigured publishers are
// skipped silently.
type Publisher interface {
	Configured() bool
	Publish(ctx context.Context, videoPath, title, description string, tags []string) (string, error)
}

// ConceptSource supplies a fallback topic when research is unavailable.
type ConceptSource interface {
	FallbackTopic(category string) string
}
