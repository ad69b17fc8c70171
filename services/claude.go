// Package services holds the concrete clients behind the pipeline's
// collaborator interfaces: text generation, clip and image synthesis,
// speech, cloud-storage upload and social publishing. Every client talks
// plain HTTP and classifies provider failures at the boundary.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"video_automation/config"
	"video_automation/pipeline"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// ClaudeService implements pipeline.Director on top of the Anthropic
// messages API. BaseURL and HTTPClient are overridable for tests.
type ClaudeService struct {
	BaseURL    string
	HTTPClient *http.Client

	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	numClips    int

	companyName    string
	companyWebsite string
	companyTagline string
}

func NewClaudeService(cfg *config.Config) *ClaudeService {
	numClips := cfg.NumClips
	if numClips <= 0 {
		numClips = 3
	}
	return &ClaudeService{
		BaseURL:        anthropicBaseURL,
		HTTPClient:     &http.Client{Timeout: 120 * time.Second},
		apiKey:         cfg.AnthropicAPIKey,
		model:          cfg.ClaudeModel,
		temperature:    cfg.ClaudeTemperature,
		maxTokens:      cfg.ClaudeMaxTokens,
		numClips:       numClips,
		companyName:    cfg.CompanyName,
		companyWebsite: cfg.CompanyWebsite,
		companyTagline: cfg.CompanyTagline,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateContent sends one system+user exchange and returns the joined text
// blocks of the reply.
func (s *ClaudeService) GenerateContent(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("anthropic request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("anthropic response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var parsed anthropicResponse
		detail := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil {
			detail = parsed.Error.Message
		}
		err := fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, detail)
		return "", pipeline.WrapError(classifyStatus(resp.StatusCode), err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("anthropic reply: %w", err))
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("anthropic: empty reply"))
	}
	return text, nil
}

// classifyStatus maps an HTTP status to an error kind. 429 is a rate limit,
// 5xx and 529 (overloaded) are transient unavailability, everything else is
// a caller problem reported as internal.
func classifyStatus(status int) pipeline.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return pipeline.KindRateLimited
	case status >= 500:
		return pipeline.KindUnavailable
	default:
		return pipeline.KindInternal
	}
}

func (s *ClaudeService) systemPrompt() string {
	return fmt.Sprintf("You are the creative director for %s (%s). %s. "+
		"You write short-form vertical video concepts that feel local, warm and specific, never generic.",
		s.companyName, s.companyWebsite, s.companyTagline)
}

// ResearchTopics asks for trending topic candidates in the given focus area.
func (s *ClaudeService) ResearchTopics(ctx context.Context, focusArea string) ([]pipeline.Topic, error) {
	if focusArea == "" {
		focusArea = "AI and technology solutions for local businesses"
	}
	user := fmt.Sprintf(`Research 5 trending video topics about %s.

For each topic consider what would look striking in a vertical video and why it matters to businesses in Hawaii.

Return ONLY a JSON array, each element:
{"title": "...", "description": "...", "visual_appeal": "...", "hawaii_relevance": "..."}`, focusArea)

	reply, err := s.GenerateContent(ctx, s.systemPrompt(), user, s.temperature, s.maxTokens)
	if err != nil {
		return nil, err
	}

	var topics []pipeline.Topic
	if err := ExtractJSON(reply, &topics); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("topic research returned no topics"))
	}
	return topics, nil
}

// topicSelectionWire tolerates emotional_beats arriving as either a string
// or a list.
type topicSelectionWire struct {
	SelectedTopic        string          `json:"selected_topic"`
	ServiceAlignment     string          `json:"service_alignment"`
	StorytellingApproach string          `json:"storytelling_approach"`
	EmotionalBeats       json.RawMessage `json:"emotional_beats"`
	CTA                  string          `json:"cta"`
}

func coerceStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// SelectTopic picks the strongest candidate and shapes the creative angle.
func (s *ClaudeService) SelectTopic(ctx context.Context, topics []pipeline.Topic, services []string) (*pipeline.TopicSelection, error) {
	var list strings.Builder
	for i, t := range topics {
		fmt.Fprintf(&list, "%d. %s: %s (visual: %s; local: %s)\n", i+1, t.Title, t.Description, t.VisualAppeal, t.LocalRelevance)
	}

	user := fmt.Sprintf(`Pick the single best topic for a 30-second vertical promo video from this list:

%s
Our services: %s.

Return ONLY a JSON object:
{"selected_topic": "...", "service_alignment": "...", "storytelling_approach": "...", "emotional_beats": ["...", "..."], "cta": "..."}`,
		list.String(), strings.Join(services, ", "))

	reply, err := s.GenerateContent(ctx, s.systemPrompt(), user, s.temperature, s.maxTokens)
	if err != nil {
		return nil, err
	}

	var wire topicSelectionWire
	if err := ExtractJSON(reply, &wire); err != nil {
		return nil, err
	}
	if wire.SelectedTopic == "" {
		return nil, pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("topic selection missing selected_topic"))
	}
	return &pipeline.TopicSelection{
		SelectedTopic:        wire.SelectedTopic,
		ServiceAlignment:     wire.ServiceAlignment,
		StorytellingApproach: wire.StorytellingApproach,
		EmotionalBeats:       coerceStringList(wire.EmotionalBeats),
		CTA:                  wire.CTA,
	}, nil
}

// GeneratePrompts turns the topic selection into the full creative brief:
// one cinematic prompt per configured clip, the title card design and
// per-platform captions.
func (s *ClaudeService) GeneratePrompts(ctx context.Context, sel *pipeline.TopicSelection) (*pipeline.VideoPrompts, error) {
	slots := make([]string, s.numClips)
	for i := range slots {
		slots[i] = fmt.Sprintf(`"clip_%d_prompt": "..."`, i+1)
	}

	user := fmt.Sprintf(`Create the production brief for a 30-second vertical (9:16) promo video.

Topic: %s
Angle: %s
Emotional beats: %s
CTA: %s

Write %d cinematic video-generation prompts (8 seconds each, concrete imagery, camera movement, Hawaii setting where natural), a title card design description, and captions for instagram, youtube and linkedin that include relevant hashtags.

Return ONLY a JSON object:
{%s, "title_card_design": "...", "captions": {"instagram": "...", "youtube": "...", "linkedin": "..."}}`,
		sel.SelectedTopic, sel.StorytellingApproach, strings.Join(sel.EmotionalBeats, ", "), sel.CTA,
		s.numClips, strings.Join(slots, ", "))

	reply, err := s.GenerateContent(ctx, s.systemPrompt(), user, s.temperature, 6000)
	if err != nil {
		return nil, err
	}

	var wire struct {
		TitleCardDesign string            `json:"title_card_design"`
		Captions        map[string]string `json:"captions"`
	}
	if err := ExtractJSON(reply, &wire); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := ExtractJSON(reply, &fields); err != nil {
		return nil, err
	}

	var prompts []string
	for i := 1; i <= s.numClips; i++ {
		raw, ok := fields[fmt.Sprintf("clip_%d_prompt", i)]
		if !ok {
			continue
		}
		var p string
		if json.Unmarshal(raw, &p) == nil && strings.TrimSpace(p) != "" {
			prompts = append(prompts, strings.TrimSpace(p))
		}
	}
	if len(prompts) == 0 {
		return nil, pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("brief contains no clip prompts"))
	}
	return &pipeline.VideoPrompts{
		ClipPrompts:     prompts,
		TitleCardDesign: wire.TitleCardDesign,
		Captions:        wire.Captions,
	}, nil
}

// TitleCardPrompt produces the image-generation prompt for the opening card.
func (s *ClaudeService) TitleCardPrompt(ctx context.Context, topic, cta string) (string, error) {
	user := fmt.Sprintf(`Write one image-generation prompt for a 9:16 vertical title card opening a promo video about "%s".

It must feature the company name "%s" prominently, the call to action "%s", and the website %s. Modern, clean, tropical professional aesthetic. Reply with the prompt text only, no preamble.`,
		topic, s.companyName, cta, s.companyWebsite)

	reply, err := s.GenerateContent(ctx, s.systemPrompt(), user, 0.8, 1000)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// VoiceoverScript writes narration timed to the video duration, grounded in
// what the clips actually show.
func (s *ClaudeService) VoiceoverScript(ctx context.Context, topic string, clipDescriptions []string, durationSec int, cta string) (string, error) {
	words := durationSec * 5 / 2 // ~150 wpm speaking pace

	var scenes strings.Builder
	for i, d := range clipDescriptions {
		fmt.Fprintf(&scenes, "Scene %d: %s\n", i+1, d)
	}

	user := fmt.Sprintf(`Write a voiceover script for a %d-second promo video about "%s".

The visuals:
%s
End with this call to action: "%s".

About %d words. Warm, confident, conversational. Reply with the spoken words only, no stage directions, no quotes.`,
		durationSec, topic, scenes.String(), cta, words)

	reply, err := s.GenerateContent(ctx, s.systemPrompt(), user, 0.8, 500)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(reply), `"`), nil
}

// MusicPrompt produces the sound-generation prompt for the background track.
func (s *ClaudeService) MusicPrompt(ctx context.Context, topic, mood, style string) (string, error) {
	user := fmt.Sprintf(`Write one sound-generation prompt for instrumental background music behind a 30-second promo video about "%s". Mood: %s. Style: %s. No vocals. Reply with the prompt text only.`,
		topic, mood, style)

	reply, err := s.GenerateContent(ctx, s.systemPrompt(), user, 0.7, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
