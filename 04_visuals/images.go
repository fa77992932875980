package visuals

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

const pollinationsURL = "https://image.pollinations.ai/prompt"

// imageExtensions are checked in order when resolving a placeholder.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Store resolves image placeholders against the local images directory and
// can generate missing ones.
type Store struct {
	cfg    *config.Config
	client *http.Client
}

// NewStore creates a Store over the configured images directory.
func NewStore(cfg *config.Config) *Store {
	return &Store{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Resolve returns the local file backing a placeholder name, or "" when no
// usable image exists. Overlays for unresolved placeholders are simply not
// shown.
func (s *Store) Resolve(name string) string {
	slug := Slugify(name)
	if slug == "" {
		return ""
	}
	for _, ext := range imageExtensions {
		path := filepath.Join(s.cfg.Paths.Images, slug+ext)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path
		}
	}
	return ""
}

// FetchMissing generates an image for every placeholder that has none on
// disk yet. Failures are logged and skipped; the video just renders with
// fewer picture pop-ins.
func (s *Store) FetchMissing(ctx context.Context, lines []types.DialogueLine) {
	if !s.cfg.Visuals.GenerateMissing {
		log.Printf("[visuals] image generation disabled, using local images only")
		return
	}
	for _, line := range lines {
		name := line.ImagePlaceholder
		if name == "" || s.Resolve(name) != "" {
			continue
		}
		if err := s.fetch(ctx, name); err != nil {
			log.Printf("[visuals] ⚠️ could not generate image for %q: %v", name, err)
			continue
		}
		log.Printf("[visuals] generated image for %q", name)
	}
}

func (s *Store) fetch(ctx context.Context, name string) error {
	if err := os.MkdirAll(s.cfg.Paths.Images, 0755); err != nil {
		return fmt.Errorf("create images dir: %w", err)
	}

	slug := Slugify(name)
	prompt := fmt.Sprintf("cartoon illustration of %s, flat colors, bold outlines, plain background",
		strings.ReplaceAll(slug, "-", " "))
	reqURL := fmt.Sprintf("%s/%s?width=%d&height=%d&nologo=true&seed=%d",
		pollinationsURL, url.QueryEscape(prompt),
		s.cfg.Overlays.ImageWidth, s.cfg.Overlays.ImageHeight, rand.Intn(100000))

	maxRetries := 3
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := s.download(ctx, reqURL, filepath.Join(s.cfg.Paths.Images, slug+".png")); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (s *Store) download(ctx context.Context, reqURL, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image API returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// Tiny responses are error pages, not images.
	if len(data) < 1024 {
		return fmt.Errorf("image suspiciously small (%d bytes)", len(data))
	}
	return os.WriteFile(outPath, data, 0644)
}

// Slugify normalizes a placeholder name to its on-disk form: lowercase,
// words joined by single dashes, everything else dropped.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
