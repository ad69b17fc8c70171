package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video_automation/config"
	"video_automation/pipeline"
)

const hubSpotBaseURL = "https://api.hubapi.com"

// HubSpotService implements pipeline.Publisher. The video is uploaded to the
// HubSpot file manager; when a social channel GUID is configured a broadcast
// is scheduled against it as well. With no access token the service reports
// itself unconfigured and the pipeline skips it.
type HubSpotService struct {
	BaseURL    string
	HTTPClient *http.Client

	FolderPath string

	accessToken string
	channelGUID string
}

func NewHubSpotService(cfg *config.Config) *HubSpotService {
	return &HubSpotService{
		BaseURL:     hubSpotBaseURL,
		HTTPClient:  &http.Client{Timeout: 5 * time.Minute},
		FolderPath:  "/" + cfg.DriveFolderName,
		accessToken: cfg.HubSpotAccessToken,
		channelGUID: cfg.HubSpotChannelGUID,
	}
}

func (s *HubSpotService) Configured() bool {
	return s.accessToken != ""
}

// Publish uploads the video and, when a channel is configured, schedules a
// social broadcast referencing it. Returns the public file URL.
func (s *HubSpotService) Publish(ctx context.Context, videoPath, title, description string, tags []string) (string, error) {
	fileURL, err := s.uploadFile(ctx, videoPath, title)
	if err != nil {
		return "", err
	}

	if s.channelGUID != "" {
		if err := s.createBroadcast(ctx, fileURL, title, description, tags); err != nil {
			return "", fmt.Errorf("file uploaded to %s but broadcast failed: %w", fileURL, err)
		}
	}
	return fileURL, nil
}

type hubSpotFile struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (s *HubSpotService) uploadFile(ctx context.Context, videoPath, title string) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", sanitizeFilename(title)+filepath.Ext(videoPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}

	options, _ := json.Marshal(map[string]any{
		"access":                      "PUBLIC_INDEXABLE",
		"ttl":                         "P3M",
		"overwrite":                   false,
		"duplicateValidationStrategy": "NONE",
		"duplicateValidationScope":    "EXACT_FOLDER",
	})
	_ = w.WriteField("options", string(options))
	_ = w.WriteField("folderPath", s.FolderPath)
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/filemanager/api/v3/files/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("hubspot upload: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("hubspot response: %w", err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err := fmt.Errorf("hubspot upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		return "", pipeline.WrapError(classifyStatus(resp.StatusCode), err)
	}

	// The file manager answers either a bare file object or an objects list.
	var file hubSpotFile
	if json.Unmarshal(data, &file) == nil && file.URL != "" {
		return file.URL, nil
	}
	var wrapped struct {
		Objects []hubSpotFile `json:"objects"`
	}
	if json.Unmarshal(data, &wrapped) == nil && len(wrapped.Objects) > 0 && wrapped.Objects[0].URL != "" {
		return wrapped.Objects[0].URL, nil
	}
	return "", pipeline.WrapError(pipeline.KindMalformed, fmt.Errorf("hubspot upload reply missing file url"))
}

func (s *HubSpotService) createBroadcast(ctx context.Context, fileURL, title, description string, tags []string) error {
	body := description
	for _, tag := range tags {
		if !strings.Contains(body, "#"+tag) {
			body += " #" + tag
		}
	}

	payload, err := json.Marshal(map[string]any{
		"channelGuid": s.channelGUID,
		"triggerAt":   time.Now().Add(5 * time.Minute).UnixMilli(),
		"content": map[string]any{
			"body":            body,
			"title":           title,
			"uncompressedUrl": fileURL,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/broadcast/v2/broadcasts", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return pipeline.WrapError(pipeline.KindUnavailable, fmt.Errorf("hubspot broadcast: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("hubspot broadcast: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		return pipeline.WrapError(classifyStatus(resp.StatusCode), err)
	}
	return nil
}
