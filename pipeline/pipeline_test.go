package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirector struct {
	researchErr error
	selectErr   error
	promptsErr  error
	titleErr    error
	scriptErr   error
	musicErr    error

	numClips     int
	captions     map[string]string
	researchCall int
	promptsCall  int
}

func (d *fakeDirector) ResearchTopics(ctx context.Context, focusArea string) ([]Topic, error) {
	d.researchCall++
	if d.researchErr != nil {
		return nil, d.researchErr
	}
	return []Topic{{Title: "AI chatbots for resorts"}}, nil
}

func (d *fakeDirector) SelectTopic(ctx context.Context, topics []Topic, services []string) (*TopicSelection, error) {
	if d.selectErr != nil {
		return nil, d.selectErr
	}
	return &TopicSelection{
		SelectedTopic:    topics[0].Title,
		ServiceAlignment: "AI Integration & Automation",
		EmotionalBeats:   []string{"uplifting"},
		CTA:              "Visit example.com",
	}, nil
}

func (d *fakeDirector) GeneratePrompts(ctx context.Context, sel *TopicSelection) (*VideoPrompts, error) {
	d.promptsCall++
	if d.promptsErr != nil {
		return nil, d.promptsErr
	}
	n := d.numClips
	if n == 0 {
		n = 3
	}
	prompts := make([]string, n)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("cinematic prompt %d", i+1)
	}
	captions := d.captions
	if captions == nil {
		captions = map[string]string{"youtube": "Watch this! #AI #Hawaii"}
	}
	return &VideoPrompts{
		ClipPrompts:     prompts,
		TitleCardDesign: "clean tropical design",
		Captions:        captions,
	}, nil
}

func (d *fakeDirector) TitleCardPrompt(ctx context.Context, topic, cta string) (string, error) {
	if d.titleErr != nil {
		return "", d.titleErr
	}
	return "title card prompt", nil
}

func (d *fakeDirector) VoiceoverScript(ctx context.Context, topic string, clipDescriptions []string, durationSec int, cta string) (string, error) {
	if d.scriptErr != nil {
		return "", d.scriptErr
	}
	return "the spoken script", nil
}

func (d *fakeDirector) MusicPrompt(ctx context.Context, topic, mood, style string) (string, error) {
	if d.musicErr != nil {
		return "", d.musicErr
	}
	return "uplifting corporate track", nil
}

type fakeClips struct {
	calls   atomic.Int64
	failOn  string
	failErr error
}

func (c *fakeClips) GenerateClip(ctx context.Context, prompt string, durationSec int, outputPath string) error {
	c.calls.Add(1)
	if c.failOn != "" && prompt == c.failOn {
		return c.failErr
	}
	return os.WriteFile(outputPath, []byte("clip"), 0644)
}

type fakeImages struct {
	calls int
	err   error
}

func (i *fakeImages) GenerateImage(ctx context.Context, prompt, outputPath string) error {
	i.calls++
	if i.err != nil {
		return i.err
	}
	return os.WriteFile(outputPath, []byte("png"), 0644)
}

type fakeSpeech struct {
	synthCalls  int
	effectCalls int
	synthErr    error
	effectErr   error
}

func (s *fakeSpeech) Synthesize(ctx context.Context, text, voiceID, outputPath string) error {
	s.synthCalls++
	if s.synthErr != nil {
		return s.synthErr
	}
	return os.WriteFile(outputPath, []byte("mp3"), 0644)
}

func (s *fakeSpeech) SynthesizeEffect(ctx context.Context, description string, durationSec int, outputPath string) error {
	s.effectCalls++
	if s.effectErr != nil {
		return s.effectErr
	}
	return os.WriteFile(outputPath, []byte("mp3"), 0644)
}

type fakeComposer struct {
	composeCalls int
	mergeCalls   int
	composeErr   error
	mergeErr     error
	lastSpec     ComposeSpec
}

func (c *fakeComposer) Compose(ctx context.Context, spec ComposeSpec) (string, error) {
	c.composeCalls++
	c.lastSpec = spec
	if c.composeErr != nil {
		return "", c.composeErr
	}
	if err := os.WriteFile(spec.OutputPath, []byte("mp4"), 0644); err != nil {
		return "", err
	}
	return spec.OutputPath, nil
}

func (c *fakeComposer) MergeClips(ctx context.Context, clipPaths []string, outputPath string) error {
	c.mergeCalls++
	if c.mergeErr != nil {
		return c.mergeErr
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0644)
}

type fakeUploader struct {
	calls           int
	err             error
	lastDescription string
}

func (u *fakeUploader) Upload(ctx context.Context, videoPath, title, description string) (string, error) {
	u.calls++
	u.lastDescription = description
	if u.err != nil {
		return "", u.err
	}
	return "Drive: AI Generated Videos/" + title + ".mp4", nil
}

type fakePublisher struct {
	configured bool
	calls      int
	err        error
	lastTags   []string
}

func (p *fakePublisher) Configured() bool { return p.configured }

func (p *fakePublisher) Publish(ctx context.Context, videoPath, title, description string, tags []string) (string, error) {
	p.calls++
	p.lastTags = tags
	if p.err != nil {
		return "", p.err
	}
	return "https://example.test/broadcast/1", nil
}

type fixture struct {
	director  *fakeDirector
	clips     *fakeClips
	images    *fakeImages
	speech    *fakeSpeech
	composer  *fakeComposer
	uploader  *fakeUploader
	publisher *fakePublisher
	gen       *Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		director:  &fakeDirector{},
		clips:     &fakeClips{},
		images:    &fakeImages{},
		speech:    &fakeSpeech{},
		composer:  &fakeComposer{},
		uploader:  &fakeUploader{},
		publisher: &fakePublisher{configured: true},
	}
	f.gen = &Generator{
		Director:       f.director,
		Clips:          f.clips,
		Images:         f.images,
		Speech:         f.speech,
		Composer:       f.composer,
		Uploader:       f.uploader,
		Publisher:      f.publisher,
		ScratchDir:     t.TempDir(),
		ClipDuration:   8,
		VideoDuration:  30,
		VoiceID:        "test-voice",
		Services:       []string{"AI Integration & Automation"},
		CompanyWebsite: "https://example.com",
	}
	return f
}

func TestRun_EndToEndSuccess(t *testing.T) {
	f := newFixture(t)

	report := f.gen.Run(context.Background(), "", "", true)

	require.True(t, report.Success)
	assert.Equal(t, "AI chatbots for resorts", report.Topic)
	assert.Empty(t, report.Errors)

	final := report.Artifacts[StageComposition]
	require.NotEmpty(t, final)
	_, err := os.Stat(final)
	assert.NoError(t, err, "composition artifact must exist on disk")

	assert.Contains(t, report.PublishedURLs, "storage")
	assert.Contains(t, report.PublishedURLs, "youtube")
	assert.Equal(t, []string{"AI", "Hawaii"}, f.publisher.lastTags)
}

func TestRun_MandatoryBriefFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.director.promptsErr = errors.New("provider unavailable")

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	assert.False(t, report.Success)
	assert.NotEmpty(t, report.Errors)
	assert.EqualValues(t, 0, f.clips.calls.Load(), "no stage after the brief may run")
	assert.Zero(t, f.composer.composeCalls)
	assert.Zero(t, f.uploader.calls)
}

func TestRun_ClipSubCallFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.clips.failOn = "cinematic prompt 2"
	f.clips.failErr = errors.New("operation failed")

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	assert.False(t, report.Success)
	assert.EqualValues(t, 3, f.clips.calls.Load(), "all fan-out calls run to completion")
	assert.Contains(t, report.FlattenedErrors(), "clip 2")
	assert.Zero(t, f.images.calls, "no stage after clip synthesis may run")
	assert.Zero(t, f.speech.synthCalls)
	assert.Zero(t, f.composer.composeCalls)
}

func TestRun_OptionalFailuresDoNotAbort(t *testing.T) {
	f := newFixture(t)
	f.director.titleErr = errors.New("image quota")
	f.speech.synthErr = errors.New("tts down")
	f.speech.effectErr = errors.New("sfx down")

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	require.True(t, report.Success)
	assert.Len(t, report.Errors, 3)
	assert.NotContains(t, report.Artifacts, StageTitleCard)
	assert.NotContains(t, report.Artifacts, StageVoiceover)
	assert.NotContains(t, report.Artifacts, StageMusic)

	// Composition sees empty optional inputs and still runs.
	assert.Equal(t, 1, f.composer.composeCalls)
	assert.Empty(t, f.composer.lastSpec.TitleCardPath)
	assert.Empty(t, f.composer.lastSpec.VoiceoverPath)
	assert.Empty(t, f.composer.lastSpec.MusicPath)
}

func TestRun_CompositionFallbackToBareMerge(t *testing.T) {
	f := newFixture(t)
	f.composer.composeErr = errors.New("filter graph rejected")

	report := f.gen.Run(context.Background(), "Some topic", "", false)

	require.True(t, report.Success)
	assert.Equal(t, 1, f.composer.mergeCalls)
	assert.NotEmpty(t, report.Artifacts[StageComposition])
	assert.Contains(t, report.FlattenedErrors(), "filter graph rejected")
}

func TestRun_CompositionAndFallbackFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.composer.composeErr = errors.New("filter graph rejected")
	f.composer.mergeErr = errors.New("concat failed")

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	assert.False(t, report.Success)
	assert.Zero(t, f.uploader.calls)
}

func TestRun_TopicResearchFallsBack(t *testing.T) {
	f := newFixture(t)
	f.director.researchErr = errors.New("research failed")
	f.gen.Concepts = stubConcepts{}

	report := f.gen.Run(context.Background(), "", "", false)

	require.True(t, report.Success)
	assert.Equal(t, "Smart Scheduling for Dental Offices", report.Topic)
	assert.Contains(t, report.FlattenedErrors(), "research failed")
}

func TestRun_PublishFlagGatesUploadAndSocial(t *testing.T) {
	f := newFixture(t)

	report := f.gen.Run(context.Background(), "Some topic", "", false)

	require.True(t, report.Success)
	assert.Zero(t, f.uploader.calls)
	assert.Zero(t, f.publisher.calls)
	assert.Empty(t, report.PublishedURLs)
}

func TestRun_UnconfiguredPublisherIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.publisher.configured = false

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	require.True(t, report.Success)
	assert.Zero(t, f.publisher.calls)
	assert.Empty(t, report.Errors)
	assert.Contains(t, report.PublishedURLs, "storage")
}

func TestRun_UploadFailureIsRecordedNotFatal(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("drive folder missing")

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	require.True(t, report.Success)
	assert.Contains(t, report.FlattenedErrors(), "drive folder missing")
	assert.NotContains(t, report.PublishedURLs, "storage")
}

func TestRun_ScratchDirFailureIsSetupError(t *testing.T) {
	f := newFixture(t)
	blocker := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	f.gen.ScratchDir = filepath.Join(blocker, "scratch")

	report := f.gen.Run(context.Background(), "Some topic", "", false)

	assert.False(t, report.Success)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], StageSetup+": ")
	assert.Zero(t, f.director.promptsCall, "no stage ran")
}

func TestRun_UploadDescriptionCoversRequestedPlatforms(t *testing.T) {
	f := newFixture(t)
	f.director.captions = map[string]string{
		"instagram": "ig caption #Reach",
		"youtube":   "yt caption #Watch",
		"linkedin":  "li caption #Network",
	}

	report := f.gen.Run(context.Background(), "Some topic", "", true)

	require.True(t, report.Success)
	assert.Contains(t, f.uploader.lastDescription, "ig caption #Reach")
	assert.Contains(t, f.uploader.lastDescription, "yt caption #Watch")
	assert.Contains(t, f.uploader.lastDescription, "li caption #Network")
}

type stubConcepts struct{}

func (stubConcepts) FallbackTopic(category string) string {
	return "Smart Scheduling for Dental Offices"
}
