package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video_automation/config"
	"video_automation/pipeline"
)

func testElevenLabs(t *testing.T, handler http.HandlerFunc) *ElevenLabsService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewElevenLabsService(&config.Config{ElevenLabsAPIKey: "xi-key"})
	s.BaseURL = srv.URL
	s.HTTPClient = srv.Client()
	return s
}

func TestSynthesize_WritesAudioFile(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	s := testElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte("fake mp3 bytes"))
	})

	out := filepath.Join(t.TempDir(), "voiceover.mp3")
	err := s.Synthesize(context.Background(), "Aloha from the future.", "voice-123", out)

	require.NoError(t, err)
	assert.Equal(t, "/v1/text-to-speech/voice-123", gotPath)
	assert.Equal(t, "xi-key", gotKey)
	assert.Equal(t, "Aloha from the future.", gotBody["text"])
	assert.Equal(t, "eleven_multilingual_v2", gotBody["model_id"])

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "fake mp3 bytes", string(data))
}

func TestSynthesizeEffect_UsesSoundGeneration(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	s := testElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte("music"))
	})

	out := filepath.Join(t.TempDir(), "music.mp3")
	err := s.SynthesizeEffect(context.Background(), "gentle ukulele groove", 30, out)

	require.NoError(t, err)
	assert.Equal(t, "/v1/sound-generation", gotPath)
	assert.Equal(t, float64(30), gotBody["duration_seconds"])
}

func TestSynthesize_RateLimitKind(t *testing.T) {
	s := testElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := s.Synthesize(context.Background(), "text", "voice", filepath.Join(t.TempDir(), "v.mp3"))

	require.Error(t, err)
	assert.Equal(t, pipeline.KindRateLimited, pipeline.KindOf(err))
}
