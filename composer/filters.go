package composer

import (
	"fmt"
	"strings"
)

// MixOptions describes one audio-mix filter graph. Input 0 is always the
// concatenated visual track; VoiceIndex and MusicIndex are the ffmpeg input
// indices of the overlay tracks, -1 when absent.
type MixOptions struct {
	VoiceIndex int
	MusicIndex int
	ClipAudio  bool
	Ducking    bool
	MusicGain  float64
	ClipGain   float64
	// Duration of the visual track in seconds; 0 means unknown, which
	// disables the timed fades.
	Duration float64
}

// MixFilter builds the filter_complex graph mixing clip audio, voiceover and
// music into [aout]. The ducking variant compresses the music against the
// voiceover sidechain; the static variant relies on fixed gains only. The
// mixed output is loudness normalized to a fixed target and peak limited.
func MixFilter(o MixOptions) string {
	var parts []string
	var mixInputs []string

	voice := o.VoiceIndex >= 0
	music := o.MusicIndex >= 0

	if voice {
		if music && o.Ducking {
			parts = append(parts, fmt.Sprintf("[%d:a]asplit=2[vo1][vo2]", o.VoiceIndex))
			mixInputs = append(mixInputs, "[vo1]")
		} else {
			mixInputs = append(mixInputs, fmt.Sprintf("[%d:a]", o.VoiceIndex))
		}
	}

	if music {
		bgm := fmt.Sprintf("[%d:a]volume=%.2f,afade=t=in:st=0:d=1", o.MusicIndex, o.MusicGain)
		if o.Duration > 3 {
			bgm += fmt.Sprintf(",afade=t=out:st=%.2f:d=2", o.Duration-2)
		}
		parts = append(parts, bgm+"[bgm]")

		if voice && o.Ducking {
			parts = append(parts, "[bgm][vo2]sidechaincompress=threshold=0.03:ratio=4:attack=20:release=250:level_sc=1[duck]")
			mixInputs = append(mixInputs, "[duck]")
		} else {
			mixInputs = append(mixInputs, "[bgm]")
		}
	}

	if o.ClipAudio {
		parts = append(parts, fmt.Sprintf("[0:a]volume=%.2f[ca]", o.ClipGain))
		mixInputs = append(mixInputs, "[ca]")
	}

	var mixed string
	if len(mixInputs) == 1 {
		mixed = mixInputs[0]
	} else {
		parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=first:dropout_transition=2[mix]",
			strings.Join(mixInputs, ""), len(mixInputs)))
		mixed = "[mix]"
	}

	tail := "loudnorm=I=-16:TP=-1.5:LRA=11,acompressor=threshold=0.1:ratio=4:attack=200:release=1000,alimiter=limit=0.95"
	if o.Duration > 2 {
		tail += fmt.Sprintf(",afade=t=out:st=%.2f:d=1.5", o.Duration-1.5)
	}
	parts = append(parts, mixed+tail+"[aout]")

	return strings.Join(parts, ";")
}

// scaleFilter normalizes any input to the target portrait frame: fit inside,
// pad to exact size, constant frame rate, square pixels.
func scaleFilter(width, height, fps int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,setsar=1",
		width, height, width, height, fps)
}

// concatFileBody renders the list file for the concat demuxer. Single quotes
// in paths are escaped the way ffmpeg expects.
func concatFileBody(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		p = strings.ReplaceAll(p, "\\", "/")
		p = strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", p)
	}
	return b.String()
}
