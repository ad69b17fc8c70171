package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"video_automation/config"
	"video_automation/pipeline"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsService implements pipeline.SpeechSynthesizer: text-to-speech
// for the voiceover and sound generation for the background music track.
type ElevenLabsService struct {
	BaseURL    string
	HTTPClient *http.Client

	ModelID         string
	Stability       float64
	SimilarityBoost float64
	Style           float64

	apiKey string
}

func NewElevenLabsService(cfg *config.Config) *ElevenLabsService {
	return &ElevenLabsService{
		BaseURL:         elevenLabsBaseURL,
		HTTPClient:      &http.Client{Timeout: 3 * time.Minute},
		ModelID:         "eleven_multilingual_v2",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.3,
		apiKey:          cfg.ElevenLabsAPIKey,
	}
}

// Synthesize renders text with the given voice and writes the audio to
// outputPath.
func (s *ElevenLabsService) Synthesize(ctx context.Context, text, voiceID, outputPath string) error {
	body := map[string]any{
		"text":     text,
		"model_id": s.ModelID,
		"voice_settings": map[string]any{
			"stability":        s.Stability,
			"similarity_boost": s.SimilarityBoost,
			"style":            s.Style,
		},
	}
	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.BaseURL, voiceID)
	return s.fetchAudio(ctx, url, body, outputPath)
}

// SynthesizeEffect generates a sound clip from a text description, used for
// the background music bed.
func (s *ElevenLabsService) SynthesizeEffect(ctx context.Context, description string, durationSec int, outputPath string) error {
	body := map[string]any{
		"text":             description,
		"duration_seconds": durationSec,
		"prompt_influence": 0.5,
	}
	url := s.BaseURL + "/v1/sound-generation"
	return s.fetchAudio(ctx, url, body, outputPath)
}

func (s *ElevenLabsService) fetchAudio(ctx context.Context, url string, body map[string]any, outputPath string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("elevenlabs request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		return pipeline.WrapError(classifyStatus(resp.StatusCode), err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	return nil
}
