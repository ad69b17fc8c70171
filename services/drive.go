package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video_automation/config"
)

// DriveUploader implements pipeline.Uploader by dropping the finished video
// into a locally synced cloud-storage folder. No API credentials needed; the
// sync client picks the file up. When no synced folder exists the video is
// kept in a local fallback directory so the run still has a deliverable.
type DriveUploader struct {
	FolderName     string
	CandidateRoots []string
	FallbackDir    string
}

func NewDriveUploader(cfg *config.Config) *DriveUploader {
	home, _ := os.UserHomeDir()
	return &DriveUploader{
		FolderName: cfg.DriveFolderName,
		CandidateRoots: []string{
			filepath.Join(home, "Google Drive"),
			filepath.Join(home, "GoogleDrive"),
			filepath.Join(home, "Library", "CloudStorage", "GoogleDrive-*"),
			"/Volumes/GoogleDrive",
		},
		FallbackDir: filepath.Join(os.TempDir(), "ai_generated_videos"),
	}
}

// Upload copies the video into the synced folder under FolderName, writes a
// description sidecar next to it, and returns the destination path.
func (u *DriveUploader) Upload(ctx context.Context, videoPath, title, description string) (string, error) {
	destDir := u.resolveDestDir()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload folder: %w", err)
	}

	name := fmt.Sprintf("%s_%s.mp4", sanitizeFilename(title), time.Now().Format("20060102_150405"))
	destPath := filepath.Join(destDir, name)

	if err := copyFile(videoPath, destPath); err != nil {
		return "", fmt.Errorf("copying video: %w", err)
	}

	if description != "" {
		sidecar := strings.TrimSuffix(destPath, ".mp4") + "_description.txt"
		if err := os.WriteFile(sidecar, []byte(description), 0o644); err != nil {
			log.Printf("⚠ could not write description sidecar: %v", err)
		}
	}

	log.Printf("video uploaded to %s", destPath)
	return destPath, nil
}

// resolveDestDir finds the first existing synced root (glob patterns
// allowed), descending into "My Drive" when the sync client nests one.
// Falls back to FallbackDir.
func (u *DriveUploader) resolveDestDir() string {
	for _, root := range u.CandidateRoots {
		matches := []string{root}
		if strings.ContainsAny(root, "*?[") {
			if globbed, err := filepath.Glob(root); err == nil {
				matches = globbed
			} else {
				continue
			}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			if sub := filepath.Join(m, "My Drive"); dirExists(sub) {
				m = sub
			}
			return filepath.Join(m, u.FolderName)
		}
	}
	log.Printf("no synced drive folder found, keeping video in %s", u.FallbackDir)
	return filepath.Join(u.FallbackDir, u.FolderName)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// sanitizeFilename keeps letters, digits, spaces, hyphens and underscores;
// spaces collapse to underscores.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "video"
	}
	if len(out) > 80 {
		out = out[:80]
	}
	return out
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

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
