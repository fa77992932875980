package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/JeffreyLin1/peetleAI/01_topics"
	"github.com/JeffreyLin1/peetleAI/02_script"
	"github.com/JeffreyLin1/peetleAI/03_audio"
	"github.com/JeffreyLin1/peetleAI/04_visuals"
	"github.com/JeffreyLin1/peetleAI/05_timing"
	"github.com/JeffreyLin1/peetleAI/06_overlays"
	"github.com/JeffreyLin1/peetleAI/07_render"
	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"

	"github.com/google/uuid"
)

// Pipeline wires every stage of topic-to-video generation.
type Pipeline struct {
	cfg *config.Config
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run generates one video. An empty topic means "find one on Reddit first".
// State is snapshotted into the run directory as the stages progress, and the
// final state is written whether the run succeeds or fails.
func (p *Pipeline) Run(ctx context.Context, topic string) (*types.RunState, error) {
	cfg := p.cfg

	// Ensure required dirs exist
	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Images} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// Create run ID and output dir for this run
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	log.Printf("🎬 peetleAI starting — Run ID: %s", runID)
	log.Printf("📁 Run dir: %s", runDir)

	state := &types.RunState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}

	// Save state on exit
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveJSON(filepath.Join(runDir, "run_state.json"), state)
		if state.Error != "" {
			log.Printf("❌ Run failed: %s", state.Error)
		} else {
			log.Printf("✅ Run complete! Video: %s", state.VideoFile)
		}
	}()

	// ─────────────────────────────────────────────
	// STAGE 1: Topic
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 1: Topic ━━━")
	if topic == "" {
		suggester, err := topics.NewSuggester(cfg)
		if err != nil {
			state.Error = fmt.Sprintf("stage 1 topic: %v", err)
			return nil, fmt.Errorf("stage 1 topic: %w", err)
		}
		topic, err = suggester.Suggest(ctx)
		if err != nil {
			state.Error = fmt.Sprintf("stage 1 topic: %v", err)
			return nil, fmt.Errorf("stage 1 topic: %w", err)
		}
	}
	state.Topic = topic
	log.Printf("🗞️ Topic: %s", topic)

	// ─────────────────────────────────────────────
	// STAGE 2: Script Writing
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 2: Script Writing ━━━")
	writer := script.NewWriter(cfg)
	lines, err := writer.Write(ctx, topic)
	if err != nil {
		state.Error = fmt.Sprintf("stage 2 script: %v", err)
		return nil, fmt.Errorf("stage 2 script: %w", err)
	}
	state.Dialogue = lines
	saveJSON(filepath.Join(runDir, "dialogue.json"), lines)

	// ─────────────────────────────────────────────
	// STAGE 3: Speech Synthesis
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 3: Speech Synthesis ━━━")
	audioDir := filepath.Join(runDir, "audio")
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		state.Error = fmt.Sprintf("stage 3 speech: %v", err)
		return nil, fmt.Errorf("stage 3 speech: %w", err)
	}
	synth := audio.NewElevenLabs(cfg)
	clips, err := synth.Synthesize(ctx, lines, audioDir)
	if err != nil {
		state.Error = fmt.Sprintf("stage 3 speech: %v", err)
		return nil, fmt.Errorf("stage 3 speech: %w", err)
	}

	// ─────────────────────────────────────────────
	// STAGE 4: Audio Timeline
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 4: Audio Timeline ━━━")
	prober := audio.NewProber(cfg)
	assembler := audio.NewAssembler(cfg, prober)
	combinedAudio, intervals, err := assembler.Assemble(ctx, clips, audioDir)
	if err != nil {
		state.Error = fmt.Sprintf("stage 4 timeline: %v", err)
		return nil, fmt.Errorf("stage 4 timeline: %w", err)
	}
	state.AudioFile = combinedAudio
	state.Intervals = intervals
	saveJSON(filepath.Join(runDir, "timeline.json"), intervals)
	totalDuration := intervals[len(intervals)-1].End

	// ─────────────────────────────────────────────
	// STAGE 5: Images
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 5: Images ━━━")
	store := visuals.NewStore(cfg)
	store.FetchMissing(ctx, lines)

	// ─────────────────────────────────────────────
	// STAGE 6: Word Timing
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 6: Word Timing ━━━")
	estimator := timing.New(cfg)
	tokens := estimator.Estimate(buildSegments(intervals, lines))

	// ─────────────────────────────────────────────
	// STAGE 7: Overlay Planning
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 7: Overlay Planning ━━━")
	planner := overlays.New(cfg)
	characterWindows, err := planner.Plan(intervals)
	if err != nil {
		state.Error = fmt.Sprintf("stage 7 overlays: %v", err)
		return nil, fmt.Errorf("stage 7 overlays: %w", err)
	}
	imageWindows := planner.PlanImages(tokens, totalDuration, store)

	// ─────────────────────────────────────────────
	// STAGE 8: Render
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 8: Render ━━━")
	builder := render.NewBuilder(cfg)
	plan, err := builder.Build(render.BuildInput{
		AudioPath:   combinedAudio,
		DurationSec: totalDuration,
		Characters:  characterWindows,
		Images:      imageWindows,
		WordTokens:  tokens,
		Intervals:   intervals,
		OutDir:      runDir,
	})
	if err != nil {
		state.Error = fmt.Sprintf("stage 8 render: %v", err)
		return nil, fmt.Errorf("stage 8 render: %w", err)
	}
	saveJSON(filepath.Join(runDir, "render_plan.json"), plan)

	encoder := render.NewEncoder(cfg)
	videoPath, err := encoder.Encode(ctx, plan)
	if err != nil {
		state.Error = fmt.Sprintf("stage 8 render: %v", err)
		return nil, fmt.Errorf("stage 8 render: %w", err)
	}
	state.VideoFile = videoPath
	state.DurationSec = prober.DurationOrFallback(videoPath)

	return state, nil
}

// buildSegments joins the timeline intervals back with their script lines so
// word timing sees both the measured window and the image placeholder.
func buildSegments(intervals []types.TimelineInterval, lines []types.DialogueLine) []types.Segment {
	placeholders := make(map[int]string, len(lines))
	for _, l := range lines {
		placeholders[l.Index] = l.ImagePlaceholder
	}
	segments := make([]types.Segment, len(intervals))
	for i, iv := range intervals {
		segments[i] = types.Segment{
			Start:            iv.Start,
			End:              iv.End,
			Speaker:          iv.Speaker,
			Text:             iv.Text,
			ImagePlaceholder: placeholders[iv.LineIndex],
		}
	}
	return segments
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}
