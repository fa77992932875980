package audio

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/JeffreyLin1/peetleAI/config"
)

// Prober measures media durations with ffprobe.
type Prober struct {
	timeout     time.Duration
	fallbackSec float64
}

// NewProber creates a Prober with the configured probe timeout and fallback
// duration.
func NewProber(cfg *config.Config) *Prober {
	return &Prober{
		timeout:     time.Duration(cfg.Timeline.ProbeTimeoutSec) * time.Second,
		fallbackSec: cfg.Timeline.FallbackClipSec,
	}
}

// Duration returns the clip length in seconds. It fails when the file cannot
// be probed or reports no usable duration; callers that need exact timeline
// math must use this and propagate the error.
func (p *Prober) Duration(path string) (float64, error) {
	out, err := ffmpeg.ProbeWithTimeout(path, p.timeout, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "probe %s", path)
	}
	sec, err := parseDuration(out)
	if err != nil {
		return 0, errors.Wrapf(err, "probe %s", path)
	}
	return sec, nil
}

// DurationOrFallback returns the probed length, substituting the configured
// fallback when probing fails. Only fit for cosmetic uses such as reporting;
// timeline assembly must not go through here.
func (p *Prober) DurationOrFallback(path string) float64 {
	sec, err := p.Duration(path)
	if err != nil {
		log.Printf("[audio] probe failed for %s, assuming %.1fs: %v", path, p.fallbackSec, err)
		return p.fallbackSec
	}
	return sec
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseDuration extracts format.duration from ffprobe's JSON output.
func parseDuration(probeJSON string) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(probeJSON), &out); err != nil {
		return 0, errors.Wrap(err, "decode probe output")
	}
	if out.Format.Duration == "" {
		return 0, errors.New("probe output has no format duration")
	}
	sec, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse duration %q", out.Format.Duration)
	}
	if sec <= 0 {
		return 0, errors.Errorf("non-positive duration %.3f", sec)
	}
	return sec, nil
}
