package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 30, cfg.VideoDuration)
	assert.Equal(t, 8, cfg.ClipDuration)
	assert.Equal(t, 3, cfg.NumClips)
	assert.Equal(t, "video_automation", cfg.MongoDatabase)
	assert.NotEmpty(t, cfg.ScratchDir)
	assert.NotEmpty(t, cfg.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VIDEO_DURATION", "45")
	t.Setenv("CLAUDE_TEMPERATURE", "0.5")
	t.Setenv("PORT", "9000")

	cfg := Load()

	assert.Equal(t, 45, cfg.VideoDuration)
	assert.Equal(t, 0.5, cfg.ClaudeTemperature)
	assert.Equal(t, "9000", cfg.Port)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("VIDEO_DURATION", "not-a-number")
	t.Setenv("CLAUDE_TEMPERATURE", "warm")

	cfg := Load()

	assert.Equal(t, 30, cfg.VideoDuration)
	assert.Equal(t, 0.9, cfg.ClaudeTemperature)
}
