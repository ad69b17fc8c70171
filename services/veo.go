package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"video_automation/config"
	"video_automation/pipeline"
)

const (
	veoBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	veoDefaultModel = "veo-3.0-generate-preview"
)

// VeoService implements pipeline.ClipSynthesizer against the Gemini API's
// long-running video generation. Each GenerateClip call retries internally
// with a doubling backoff before giving up, because single clip attempts
// fail often enough that one strike is too strict and the outer run retry
// is too expensive.
type VeoService struct {
	BaseURL    string
	HTTPClient *http.Client

	Model        string
	AspectRatio  string
	PollInterval time.Duration
	MaxAttempts  int
	RetryBase    time.Duration

	apiKey string
}

func NewVeoService(cfg *config.Config) *VeoService {
	return &VeoService{
		BaseURL:      veoBaseURL,
		HTTPClient:   &http.Client{Timeout: 5 * time.Minute},
		Model:        veoDefaultModel,
		AspectRatio:  "9:16",
		PollInterval: 10 * time.Second,
		MaxAttempts:  3,
		RetryBase:    30 * time.Second,
		apiKey:       cfg.GoogleAPIKey,
	}
}

// GenerateClip runs up to MaxAttempts generation attempts, doubling the wait
// from RetryBase between them. All failures are retried within the budget;
// the last error, with its kind intact, is what the caller sees.
func (s *VeoService) GenerateClip(ctx context.Context, prompt string, durationSec int, outputPath string) error {
	var lastErr error
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := s.RetryBase << (attempt - 2)
			log.Printf("clip attempt %d/%d in %s (last error: %v)", attempt, s.MaxAttempts, wait, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := s.generateOnce(ctx, prompt, durationSec, outputPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return fmt.Errorf("clip generation failed after %d attempts: %w", s.MaxAttempts, lastErr)
}

type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (s *VeoService) generateOnce(ctx context.Context, prompt string, durationSec int, outputPath string) error {
	opName, err := s.startGeneration(ctx, prompt, durationSec)
	if err != nil {
		return err
	}

	uri, err := s.pollOperation(ctx, opName)
	if err != nil {
		return err
	}

	return s.downloadVideo(ctx, uri, outputPath)
}

func (s *VeoService) startGeneration(ctx context.Context, prompt string, durationSec int) (string, error) {
	body, err := json.Marshal(map[string]any{
		"instances": []map[string]any{{"prompt": prompt}},
		"parameters": map[string]any{
			"aspectRatio":     s.AspectRatio,
			"durationSeconds": durationSec,
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning", s.BaseURL, s.Model)
	data, err := s.doJSON(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}

	var op veoOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return "", pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("veo start reply: %w", err))
	}
	if op.Name == "" {
		return "", pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("veo start reply missing operation name"))
	}
	return op.Name, nil
}

func (s *VeoService) pollOperation(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/%s", s.BaseURL, name)
	for {
		data, err := s.doJSON(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}

		var op veoOperation
		if err := json.Unmarshal(data, &op); err != nil {
			return "", pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("veo poll reply: %w", err))
		}

		if op.Done {
			if op.Error != nil {
				err := fmt.Errorf("veo operation: code %d: %s", op.Error.Code, op.Error.Message)
				return "", pipeline.WrapError(classifyGRPCCode(op.Error.Code, op.Error.Message), err)
			}
			if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
				return "", pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("veo operation finished with no video"))
			}
			return op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.PollInterval):
		}
	}
}

func (s *VeoService) downloadVideo(ctx context.Context, uri, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("veo download: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("veo download: status %d", resp.StatusCode)
		return pipeline.WrapError(classifyStatus(resp.StatusCode), err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing clip: %w", err)
	}
	return nil
}

func (s *VeoService) doJSON(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	return googleJSON(ctx, s.HTTPClient, s.apiKey, method, url, body)
}

// googleJSON performs one authenticated generativelanguage request and
// returns the body, mapping non-200 statuses to kinded errors. Shared by the
// clip and image services.
func googleJSON(ctx context.Context, client *http.Client, apiKey, method, url string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("veo request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("veo response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("veo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		return nil, pipeline.WrapError(classifyStatus(resp.StatusCode), err)
	}
	return data, nil
}

// classifyGRPCCode maps the gRPC status carried in an operation error. 8 is
// RESOURCE_EXHAUSTED, 14 UNAVAILABLE, 4 DEADLINE_EXCEEDED.
func classifyGRPCCode(code int, message string) pipeline.ErrorKind {
	switch code {
	case 8, 429:
		return pipeline.KindRateLimited
	case 4, 14:
		return pipeline.KindUnavailable
	}
	if pipeline.TextLooksRateLimited(message) {
		return pipeline.KindRateLimited
	}
	return pipeline.KindInternal
}
