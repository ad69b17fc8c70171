package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"video_automation/config"
	"video_automation/pipeline"
)

const imagenDefaultModel = "imagen-4.0-generate-001"

// ImagenService implements pipeline.ImageSynthesizer for the title card.
type ImagenService struct {
	BaseURL    string
	HTTPClient *http.Client

	Model       string
	AspectRatio string

	apiKey string
}

func NewImagenService(cfg *config.Config) *ImagenService {
	return &ImagenService{
		BaseURL:     veoBaseURL,
		HTTPClient:  &http.Client{Timeout: 2 * time.Minute},
		Model:       imagenDefaultModel,
		AspectRatio: "9:16",
		apiKey:      cfg.GoogleAPIKey,
	}
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage renders the prompt and writes the decoded image to
// outputPath.
func (s *ImagenService) GenerateImage(ctx context.Context, prompt, outputPath string) error {
	body, err := json.Marshal(map[string]any{
		"instances": []map[string]any{{"prompt": prompt}},
		"parameters": map[string]any{
			"sampleCount": 1,
			"aspectRatio": s.AspectRatio,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/models/%s:predict", s.BaseURL, s.Model)
	data, err := googleJSON(ctx, s.HTTPClient, s.apiKey, http.MethodPost, url, body)
	if err != nil {
		return err
	}

	var parsed imagenResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("imagen reply: %w", err))
	}
	if len(parsed.Predictions) == 0 || parsed.Predictions[0].BytesBase64Encoded == "" {
		return pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("imagen reply contains no image"))
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("imagen payload: %w", err))
	}
	if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
		return fmt.Errorf("writing title card: %w", err)
	}
	return nil
}
