// Package composer assembles the final vertical video with ffmpeg: clip
// normalization, title card, concat, and a three-way audio mix with the
// music ducked under the voiceover.
package composer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"video_automation/pipeline"
)

// Composer implements pipeline.VideoComposer by shelling out to ffmpeg.
// Every input segment is first normalized to the target frame so the concat
// demuxer can run in copy mode.
type Composer struct {
	FFmpegPath  string
	FFprobePath string

	Width  int
	Height int
	FPS    int

	TitleCardSeconds float64
	MusicGain        float64
	ClipAudioGain    float64
}

func New() *Composer {
	return &Composer{
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Width:            1080,
		Height:           1920,
		FPS:              30,
		TitleCardSeconds: 3.0,
		MusicGain:        0.3,
		ClipAudioGain:    0.3,
	}
}

// Compose builds the deliverable described by spec and returns its path.
// Missing optional inputs (title card, voiceover, music) are skipped; the
// output still gets produced from whatever clips exist.
func (c *Composer) Compose(ctx context.Context, spec pipeline.ComposeSpec) (string, error) {
	clips := existingFiles(spec.ClipPaths)
	if len(clips) == 0 {
		return "", fmt.Errorf("no clips to compose")
	}

	workDir := filepath.Join(filepath.Dir(spec.OutputPath), "compose")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err
	}

	// The title card opens the video, so its segment goes first.
	var segments []string
	if fileExists(spec.TitleCardPath) {
		seg := filepath.Join(workDir, "seg_title.mp4")
		if err := c.titleCardSegment(ctx, spec.TitleCardPath, seg); err != nil {
			log.Printf("⚠ title card segment failed, continuing without it: %v", err)
		} else {
			segments = append(segments, seg)
		}
	}

	for i, clip := range clips {
		seg := filepath.Join(workDir, fmt.Sprintf("seg_%02d.mp4", i))
		if err := c.normalizeSegment(ctx, clip, seg); err != nil {
			return "", fmt.Errorf("normalizing clip %d: %w", i, err)
		}
		segments = append(segments, seg)
	}

	visual := filepath.Join(workDir, "visual.mp4")
	if err := c.concatSegments(ctx, segments, visual); err != nil {
		return "", fmt.Errorf("concatenating segments: %w", err)
	}

	voice := ""
	if fileExists(spec.VoiceoverPath) {
		voice = spec.VoiceoverPath
	}
	music := ""
	if fileExists(spec.MusicPath) {
		music = spec.MusicPath
	}

	if voice == "" && music == "" {
		if err := copyFile(visual, spec.OutputPath); err != nil {
			return "", err
		}
		return spec.OutputPath, nil
	}

	duration, err := c.Duration(ctx, visual)
	if err != nil {
		log.Printf("⚠ could not probe visual duration: %v", err)
		duration = 0
	}

	// Full ducked mix first; fall back to static gains when the sidechain
	// graph fails on this ffmpeg build.
	if err := c.mixAudio(ctx, visual, voice, music, duration, true, spec.OutputPath); err != nil {
		log.Printf("⚠ ducked mix failed, retrying with static gains: %v", err)
		if err := c.mixAudio(ctx, visual, voice, music, duration, false, spec.OutputPath); err != nil {
			return "", fmt.Errorf("mixing audio: %w", err)
		}
	}

	log.Printf("✓ composed %s", spec.OutputPath)
	return spec.OutputPath, nil
}

// MergeClips is the bare fallback: concat the raw clips in copy mode with no
// normalization and no audio overlays.
func (c *Composer) MergeClips(ctx context.Context, clipPaths []string, outputPath string) error {
	clips := existingFiles(clipPaths)
	if len(clips) == 0 {
		return fmt.Errorf("no clips to merge")
	}
	return c.concatSegments(ctx, clips, outputPath)
}

// normalizeSegment re-encodes one clip to the target frame with a guaranteed
// stereo audio track, padding silence when the source has none.
func (c *Composer) normalizeSegment(ctx context.Context, input, output string) error {
	hasAudio, err := c.HasAudio(ctx, input)
	if err != nil {
		hasAudio = false
	}

	args := []string{"-y", "-i", input}
	if !hasAudio {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}
	args = append(args,
		"-vf", scaleFilter(c.Width, c.Height, c.FPS),
		"-c:v", "libx264", "-preset", "fast", "-crf", "23", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-ar", "44100", "-ac", "2",
	)
	if !hasAudio {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0", "-shortest")
	}
	args = append(args, output)

	return c.runFFmpeg(ctx, args)
}

// titleCardSegment turns the still image into a short video segment with
// silent audio so it concatenates cleanly.
func (c *Composer) titleCardSegment(ctx context.Context, imagePath, output string) error {
	args := []string{
		"-y",
		"-loop", "1", "-i", imagePath,
		"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-t", fmt.Sprintf("%.1f", c.TitleCardSeconds),
		"-vf", scaleFilter(c.Width, c.Height, c.FPS),
		"-c:v", "libx264", "-preset", "fast", "-crf", "23", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-ar", "44100", "-ac", "2",
		"-shortest",
		output,
	}
	return c.runFFmpeg(ctx, args)
}

func (c *Composer) concatSegments(ctx context.Context, segments []string, output string) error {
	listFile := output + ".txt"
	if err := os.WriteFile(listFile, []byte(concatFileBody(segments)), 0o644); err != nil {
		return err
	}
	defer os.Remove(listFile)

	args := []string{
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listFile,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		output,
	}
	return c.runFFmpeg(ctx, args)
}

// mixAudio lays the voiceover and looped music over the visual track. The
// output is trimmed to the visual duration so the looped music never extends
// the video.
func (c *Composer) mixAudio(ctx context.Context, visual, voice, music string, duration float64, ducking bool, output string) error {
	args := []string{"-y", "-i", visual}

	opts := MixOptions{
		VoiceIndex: -1,
		MusicIndex: -1,
		ClipAudio:  true,
		Ducking:    ducking,
		MusicGain:  c.MusicGain,
		ClipGain:   c.ClipAudioGain,
		Duration:   duration,
	}

	next := 1
	if voice != "" {
		args = append(args, "-i", voice)
		opts.VoiceIndex = next
		next++
	}
	if music != "" {
		args = append(args, "-stream_loop", "-1", "-i", music)
		opts.MusicIndex = next
	}

	args = append(args,
		"-filter_complex", MixFilter(opts),
		"-map", "0:v", "-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", "192k",
	)
	if duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", duration))
	}
	args = append(args, output)

	return c.runFFmpeg(ctx, args)
}

func (c *Composer) runFFmpeg(ctx context.Context, args []string) error {
	log.Printf("ffmpeg %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, c.FFmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("ffmpeg output: %s", string(output))
		return fmt.Errorf("ffmpeg: %v", err)
	}
	return nil
}

func existingFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if fileExists(p) {
			out = append(out, p)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
