// Package config loads all runtime settings from the environment, with a
// .env file honored for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every setting the pipeline and its services need. One value
// is built at startup and handed to the assembly step; nothing reads the
// environment after that.
type Config struct {
	// Provider credentials
	AnthropicAPIKey  string
	GoogleAPIKey     string
	ElevenLabsAPIKey string

	// HubSpot social publishing (optional)
	HubSpotAccessToken string
	HubSpotPortalID    string
	HubSpotChannelGUID string

	// Storage
	MongoURI      string
	MongoDatabase string
	ScratchDir    string

	// Server
	Port        string
	Environment string

	// Video settings
	VideoDuration int
	ClipDuration  int
	NumClips      int

	// Text-generation settings
	ClaudeModel       string
	ClaudeTemperature float64
	ClaudeMaxTokens   int

	// Voice settings
	VoiceID string

	// Cloud-storage sync folder
	DriveFolderName string

	// Company info baked into prompts and captions
	CompanyName    string
	CompanyWebsite string
	CompanyTagline string
	CompanyPhone   string
	CompanyEmail   string
}

// Load reads the environment (after godotenv.Load for local .env files) and
// returns a fully defaulted Config.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),

		HubSpotAccessToken: os.Getenv("HUBSPOT_ACCESS_TOKEN"),
		HubSpotPortalID:    os.Getenv("HUBSPOT_PORTAL_ID"),
		HubSpotChannelGUID: os.Getenv("HUBSPOT_CHANNEL_GUID"),

		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "video_automation"),
		ScratchDir:    getEnv("SCRATCH_DIR", os.TempDir()),

		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		VideoDuration: getEnvInt("VIDEO_DURATION", 30),
		ClipDuration:  getEnvInt("CLIP_DURATION", 8),
		NumClips:      getEnvInt("NUM_CLIPS", 3),

		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5-20250929"),
		ClaudeTemperature: getEnvFloat("CLAUDE_TEMPERATURE", 0.9),
		ClaudeMaxTokens:   getEnvInt("CLAUDE_MAX_TOKENS", 4000),

		VoiceID: getEnv("VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),

		DriveFolderName: getEnv("DRIVE_FOLDER_NAME", "AI Generated Videos"),

		CompanyName:    getEnv("COMPANY_NAME", "LeniLani Consulting"),
		CompanyWebsite: getEnv("COMPANY_WEBSITE", "https://www.lenilani.com"),
		CompanyTagline: getEnv("COMPANY_TAGLINE", "AI-Powered Business Solutions for Hawaii"),
		CompanyPhone:   getEnv("COMPANY_PHONE", "(808) 555-0123"),
		CompanyEmail:   getEnv("COMPANY_EMAIL", "hello@lenilani.com"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
