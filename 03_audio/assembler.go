package audio

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

// Assembler lays per-line speech clips onto one shared timeline and renders
// them into a single audio file.
type Assembler struct {
	cfg    *config.Config
	prober *Prober
}

// NewAssembler creates an Assembler that probes clip durations strictly.
func NewAssembler(cfg *config.Config, prober *Prober) *Assembler {
	return &Assembler{cfg: cfg, prober: prober}
}

// Assemble probes every clip, computes its speaking interval, and mixes all
// clips into one file under outDir. The returned intervals are the single
// source of truth for all downstream timing; the combined file's duration
// matches the final interval's end. A clip that cannot be probed fails the
// whole assembly.
func (a *Assembler) Assemble(ctx context.Context, clips []types.SpeechClip, outDir string) (string, []types.TimelineInterval, error) {
	if len(clips) == 0 {
		return "", nil, fmt.Errorf("no speech clips to assemble")
	}

	durations := make([]float64, len(clips))
	for i, clip := range clips {
		sec, err := a.prober.Duration(clip.AudioFile)
		if err != nil {
			return "", nil, fmt.Errorf("clip %d (line %d): %w", i, clip.LineIndex, err)
		}
		durations[i] = sec
	}

	intervals := computeIntervals(durations, a.cfg.Timeline.GapSec)
	for i := range intervals {
		intervals[i].Speaker = clips[i].Speaker
		intervals[i].LineIndex = clips[i].LineIndex
		intervals[i].Text = clips[i].Text
	}
	total := intervals[len(intervals)-1].End

	outPath := filepath.Join(outDir, "combined_audio.mp3")
	if a.cfg.Timeline.ForceConcat {
		if err := a.concat(ctx, clips, outDir, outPath); err != nil {
			return "", nil, err
		}
	} else if err := a.mix(ctx, clips, intervals, durations, total, outPath); err != nil {
		log.Printf("[audio] ⚠️ mix failed, falling back to concat: %v", err)
		if err := a.concat(ctx, clips, outDir, outPath); err != nil {
			return "", nil, err
		}
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return "", nil, fmt.Errorf("combined audio missing or empty at %s", outPath)
	}

	log.Printf("[audio] assembled %d clips into %.2fs timeline", len(clips), total)
	return outPath, intervals, nil
}

// mix renders every clip at its exact interval start over a silent base
// track: each input is trimmed to its probed duration, boosted, delayed to
// its start time, and mixed without normalization so levels stay put.
func (a *Assembler) mix(ctx context.Context, clips []types.SpeechClip, intervals []types.TimelineInterval, durations []float64, total float64, outPath string) error {
	args := a.mixArgs(clips, intervals, durations, total, outPath)
	return a.runFFmpeg(ctx, args)
}

// mixArgs builds the complete ffmpeg invocation for the time-aligned mix.
func (a *Assembler) mixArgs(clips []types.SpeechClip, intervals []types.TimelineInterval, durations []float64, total float64, outPath string) []string {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo:d=%.3f", a.cfg.Timeline.SampleRate, total),
	}
	for _, clip := range clips {
		args = append(args, "-i", clip.AudioFile)
	}
	args = append(args,
		"-filter_complex", a.mixFilter(intervals, durations),
		"-map", "[aout]",
		"-c:a", "libmp3lame",
		"-b:a", a.cfg.Render.AudioBitrate,
		outPath,
	)
	return args
}

// mixFilter builds the filter_complex script for the mix. Input 0 is the
// silent base; clip inputs start at 1.
func (a *Assembler) mixFilter(intervals []types.TimelineInterval, durations []float64) string {
	parts := make([]string, 0, len(intervals)+1)
	labels := make([]string, 0, len(intervals)+1)
	labels = append(labels, "[0:a]")
	for i := range intervals {
		delayMs := int(math.Round(intervals[i].Start * 1000))
		parts = append(parts, fmt.Sprintf("[%d:a]atrim=duration=%.3f,volume=%.2f,adelay=%d|%d[c%d]",
			i+1, durations[i], a.cfg.Timeline.VolumeBoost, delayMs, delayMs, i))
		labels = append(labels, fmt.Sprintf("[c%d]", i))
	}
	parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=first:dropout_transition=0:normalize=0[aout]",
		strings.Join(labels, ""), len(intervals)+1))
	return strings.Join(parts, ";")
}

// concat is the simpler fallback: clips separated by one generated silence
// segment per gap, joined with the concat demuxer. Interval math is
// unchanged, so timing stays consistent with the mixed path. The list and
// silence helpers are removed again whether the join works or not.
func (a *Assembler) concat(ctx context.Context, clips []types.SpeechClip, outDir, outPath string) error {
	silencePath := filepath.Join(outDir, "gap_silence.mp3")
	defer os.Remove(silencePath)
	if err := a.makeSilence(ctx, silencePath, a.cfg.Timeline.GapSec); err != nil {
		return fmt.Errorf("generate gap silence: %w", err)
	}

	paths := make([]string, len(clips))
	for i, clip := range clips {
		paths[i] = clip.AudioFile
	}
	listPath := filepath.Join(outDir, "concat_list.txt")
	defer os.Remove(listPath)
	if err := os.WriteFile(listPath, []byte(concatList(paths, silencePath)), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", a.cfg.Render.AudioBitrate,
		outPath,
	}
	return a.runFFmpeg(ctx, args)
}

// makeSilence writes a stereo silence clip of the given duration.
func (a *Assembler) makeSilence(ctx context.Context, path string, durationSec float64) error {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo:d=%.3f", a.cfg.Timeline.SampleRate, durationSec),
		"-c:a", "libmp3lame",
		"-b:a", a.cfg.Render.AudioBitrate,
		path,
	}
	return a.runFFmpeg(ctx, args)
}

func (a *Assembler) runFFmpeg(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.Render.TimeoutSec)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.cfg.Render.FFmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\noutput: %s", err, lastLines(string(output), 12))
	}
	return nil
}

// computeIntervals places each duration on the shared timeline: the first
// clip starts at zero and every subsequent clip starts one gap after its
// predecessor ends.
func computeIntervals(durations []float64, gap float64) []types.TimelineInterval {
	intervals := make([]types.TimelineInterval, len(durations))
	cursor := 0.0
	for i, d := range durations {
		intervals[i] = types.TimelineInterval{Start: cursor, End: cursor + d}
		cursor = intervals[i].End + gap
	}
	return intervals
}

// concatList renders the concat demuxer input: clips interleaved with the
// shared silence segment.
func concatList(clipPaths []string, silencePath string) string {
	var b strings.Builder
	for i, p := range clipPaths {
		if i > 0 {
			fmt.Fprintf(&b, "file '%s'\n", silencePath)
		}
		fmt.Fprintf(&b, "file '%s'\n", p)
	}
	return b.String()
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
