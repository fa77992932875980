package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

// Encoder executes render plans as a single ffmpeg subprocess.
type Encoder struct {
	cfg *config.Config
}

// NewEncoder creates an Encoder.
func NewEncoder(cfg *config.Config) *Encoder {
	return &Encoder{cfg: cfg}
}

// Encode runs the plan to completion. A non-zero exit, a missing output, or
// an empty output all fail the render; there is no partial result. Plan
// intermediates are removed whether the render succeeds or not.
func (e *Encoder) Encode(ctx context.Context, plan *types.RenderPlan) (string, error) {
	defer e.cleanup(plan)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Render.TimeoutSec)*time.Second)
	defer cancel()

	args := e.encodeArgs(plan)
	log.Printf("[render] encoding %.2fs video → %s", plan.DurationSec, plan.OutputPath)

	cmd := exec.CommandContext(ctx, e.cfg.Render.FFmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		removePartial(plan.OutputPath)
		return "", fmt.Errorf("render failed: %w\noutput: %s", err, lastLines(string(output), 12))
	}

	info, err := os.Stat(plan.OutputPath)
	if err != nil {
		return "", fmt.Errorf("render produced no output at %s", plan.OutputPath)
	}
	if info.Size() == 0 {
		removePartial(plan.OutputPath)
		return "", fmt.Errorf("render produced empty output at %s", plan.OutputPath)
	}

	log.Printf("[render] ✅ wrote %s (%.1f MB)", plan.OutputPath, float64(info.Size())/1024/1024)
	return plan.OutputPath, nil
}

// encodeArgs flattens the plan into the ffmpeg command line.
func (e *Encoder) encodeArgs(plan *types.RenderPlan) []string {
	args := []string{"-y"}
	for _, in := range plan.Inputs {
		args = append(args, in.PreArgs...)
		args = append(args, "-i", in.Path)
	}
	args = append(args,
		"-filter_complex", plan.FilterGraph,
		"-map", plan.VideoLabel,
		"-map", plan.AudioMap,
		"-c:v", e.cfg.Render.VideoCodec,
		"-preset", e.cfg.Render.Preset,
		"-crf", strconv.Itoa(e.cfg.Render.CRF),
		"-c:a", "aac",
		"-b:a", e.cfg.Render.AudioBitrate,
		"-t", fmt.Sprintf("%.3f", plan.DurationSec),
		"-movflags", "+faststart",
		plan.OutputPath,
	)
	return args
}

// removePartial discards whatever a failed or killed render left behind.
func removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[render] could not remove partial output %s: %v", path, err)
	}
}

func (e *Encoder) cleanup(plan *types.RenderPlan) {
	for _, path := range plan.Intermediates {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[render] could not remove intermediate %s: %v", path, err)
		}
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
