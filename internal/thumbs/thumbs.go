// Package thumbs generates JPEG preview thumbnails for stored media files.
// Thumbnails live in an on-disk mirror tree and are a disposable cache, not
// a source of truth: generation failures are reported but callers are
// expected to swallow them.
package thumbs

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
)

const (
	maxSize     = 300
	jpegQuality = 85
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif"}
var videoExts = []string{".mp4", ".webm", ".ogg", ".mov", ".avi", ".mkv"}

// Eligible reports whether a source with the given extension can get a
// thumbnail.
func Eligible(ext string) bool {
	ext = strings.ToLower(ext)
	return isImage(ext) || isVideo(ext)
}

func isImage(ext string) bool {
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

func isVideo(ext string) bool {
	for _, e := range videoExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Generator writes thumbnails for eligible source files. Video thumbnails
// need ffmpeg on PATH; without it only images are handled.
type Generator struct {
	FFmpeg string // ffmpeg binary, defaults to "ffmpeg"
}

func NewGenerator() *Generator {
	return &Generator{FFmpeg: "ffmpeg"}
}

// Generate writes a JPEG thumbnail of src to dst, creating parent
// directories as needed.
func (g *Generator) Generate(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	switch {
	case isImage(ext):
		return g.generateImage(src, dst)
	case isVideo(ext):
		return g.generateVideo(src, dst)
	default:
		return fmt.Errorf("no thumbnail support for %s", ext)
	}
}

func (g *Generator) generateImage(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail: %w", err)
	}
	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Close()
}

// generateVideo grabs the first frame via ffmpeg, scaled to thumbnail width.
func (g *Generator) generateVideo(src, dst string) error {
	ffmpeg := g.FFmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	cmd := exec.Command(ffmpeg, "-y", "-i", src, "-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", maxSize), dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("ffmpeg failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
