package composer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Duration returns the container duration of a media file in seconds.
func (c *Composer) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.FFprobePath,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseDuration(string(output))
}

// HasAudio reports whether the file carries at least one audio stream.
func (c *Composer) HasAudio(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, c.FFprobePath,
		"-v", "quiet",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		path)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseHasAudio(string(output)), nil
}

func parseDuration(output string) (float64, error) {
	s := strings.TrimSpace(output)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", s, err)
	}
	return d, nil
}

func parseHasAudio(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "audio" {
			return true
		}
	}
	return false
}
