// Package media generates images and videos for in-band commands and keeps
// the media directory from growing without bound.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/dohr-michael/colloquy/internal/config"
)

// Generator produces media files from prompts. Images are resolved
// synchronously to a local file; videos return the long-running operation
// name as a job handle.
type Generator struct {
	cfg    config.MediaConfig
	dir    string
	logger *slog.Logger

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGenerator creates a Generator storing files under dir.
func NewGenerator(cfg config.MediaConfig, dir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, dir: dir, logger: logger}
}

func (g *Generator) getClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		apiKey := strings.TrimSpace(g.cfg.Auth.APIKey)
		if strings.HasPrefix(apiKey, "${") && strings.HasSuffix(apiKey, "}") {
			apiKey = os.Getenv(apiKey[2 : len(apiKey)-1])
		}
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			g.err = fmt.Errorf("no API key for media generation")
			return
		}
		g.client, g.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.client, g.err
}

// GenerateImage renders the prompt to a local PNG file and returns its path.
func (g *Generator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateImages(ctx, g.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", fmt.Errorf("image model returned no image")
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	path := filepath.Join(g.dir, fmt.Sprintf("img_%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, resp.GeneratedImages[0].Image.ImageBytes, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	g.logger.Info("image generated", "path", path, "model", g.cfg.ImageModel)
	return path, nil
}

// GenerateVideo submits the prompt as an asynchronous video job and returns
// the operation name. Polling the operation is the caller's concern.
func (g *Generator) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	op, err := client.Models.GenerateVideos(ctx, g.cfg.VideoModel, prompt, nil, nil)
	if err != nil {
		return "", fmt.Errorf("generate video: %w", err)
	}

	g.logger.Info("video job submitted", "job", op.Name, "model", g.cfg.VideoModel)
	return op.Name, nil
}

// CleanupOld deletes generated files older than maxAge. Returns the number
// of files removed.
func CleanupOld(dir string, maxAge time.Duration, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read media dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			logger.Warn("cleanup: remove media file", "file", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("media cleanup", "removed", removed, "max_age", maxAge)
	}
	return removed, nil
}

// StartCleanupLoop runs CleanupOld periodically until ctx is cancelled.
func StartCleanupLoop(ctx context.Context, dir string, maxAge, interval time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := CleanupOld(dir, maxAge, logger); err != nil {
					if logger != nil {
						logger.Warn("media cleanup failed", "error", err)
					}
				}
			}
		}
	}()
}
