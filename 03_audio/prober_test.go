package audio

import (
	"testing"

	"github.com/JeffreyLin1/peetleAI/config"
)

func TestParseDuration(t *testing.T) {
	sec, err := parseDuration(`{"format":{"duration":"6.300000"}}`)
	if err != nil {
		t.Fatalf("parseDuration returned error: %v", err)
	}
	if sec != 6.3 {
		t.Errorf("Expected 6.3, got %v", sec)
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"not json", "ffprobe exploded"},
		{"missing duration", `{"format":{}}`},
		{"empty object", `{}`},
		{"non-numeric", `{"format":{"duration":"N/A"}}`},
		{"zero", `{"format":{"duration":"0.000000"}}`},
		{"negative", `{"format":{"duration":"-1.5"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseDuration(tc.json); err == nil {
				t.Errorf("Expected error for %q, got nil", tc.json)
			}
		})
	}
}

func TestDuration_MissingFile(t *testing.T) {
	p := NewProber(config.Default())
	if _, err := p.Duration("/nonexistent/never/clip.mp3"); err == nil {
		t.Error("Expected error probing missing file, got nil")
	}
}

func TestDurationOrFallback_MissingFile(t *testing.T) {
	cfg := config.Default()
	p := NewProber(cfg)
	sec := p.DurationOrFallback("/nonexistent/never/clip.mp3")
	if sec != cfg.Timeline.FallbackClipSec {
		t.Errorf("Expected fallback %.1f, got %v", cfg.Timeline.FallbackClipSec, sec)
	}
}
