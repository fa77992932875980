package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

func writeTemp(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testFixtures(t *testing.T) (*config.Config, BuildInput) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Render.Background = writeTemp(t, dir, "background.mp4")

	portrait := writeTemp(t, dir, "petey.png")
	image := writeTemp(t, dir, "eiffel.png")

	return cfg, BuildInput{
		AudioPath:   writeTemp(t, dir, "combined_audio.mp3"),
		DurationSec: 6.3,
		Characters: []types.OverlayWindow{
			{Kind: types.OverlayCharacter, Identity: "A", SourceFile: portrait,
				AnimationStart: 0, AnimationEnd: 2.6, XExpr: "24", YExpr: "1210", ScaleFilter: "scale=420:-1"},
		},
		Images: []types.OverlayWindow{
			{Kind: types.OverlayImage, Identity: "eiffel-tower", SourceFile: image,
				AnimationStart: 1.0, AnimationEnd: 6.3, XExpr: "(W-w)/2", YExpr: "260",
				ScaleFilter: "scale=760:560:force_original_aspect_ratio=decrease"},
		},
		WordTokens: []types.WordToken{
			{Text: "bonjour", Start: 0, End: 1.0},
			{Text: "bryan", Start: 1.0, End: 2.0},
		},
		Intervals: []types.TimelineInterval{
			{Speaker: types.SpeakerA, Start: 0, End: 2.0, Text: "Bonjour Bryan"},
		},
		OutDir: dir,
	}
}

func TestBuild_StageOrder(t *testing.T) {
	cfg, in := testFixtures(t)
	plan, err := NewBuilder(cfg).Build(in)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	graph := plan.FilterGraph
	markers := []string{"[bg]", "[ch0]", "[img0]", "[cap0]", "format=yuv420p[vout]"}
	last := -1
	for _, m := range markers {
		idx := strings.Index(graph, m)
		if idx < 0 {
			t.Fatalf("Expected graph to contain %q, got %q", m, graph)
		}
		if idx < last {
			t.Errorf("Stage %q out of order in %q", m, graph)
		}
		last = idx
	}
	if plan.VideoLabel != "[vout]" {
		t.Errorf("Expected video label [vout], got %q", plan.VideoLabel)
	}
	if plan.AudioMap != "1:a" {
		t.Errorf("Expected audio map 1:a, got %q", plan.AudioMap)
	}
}

func TestBuild_InputLayout(t *testing.T) {
	cfg, in := testFixtures(t)
	plan, err := NewBuilder(cfg).Build(in)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(plan.Inputs) != 4 {
		t.Fatalf("Expected 4 inputs (background, audio, portrait, image), got %d", len(plan.Inputs))
	}
	if plan.Inputs[0].Path != cfg.Render.Background {
		t.Errorf("Expected background first, got %q", plan.Inputs[0].Path)
	}
	if strings.Join(plan.Inputs[0].PreArgs, " ") != "-stream_loop -1" {
		t.Errorf("Expected looped background, got %v", plan.Inputs[0].PreArgs)
	}
	if plan.Inputs[1].Path != in.AudioPath {
		t.Errorf("Expected audio second, got %q", plan.Inputs[1].Path)
	}
}

func TestBuild_WordCaptionsPreferred(t *testing.T) {
	cfg, in := testFixtures(t)
	plan, err := NewBuilder(cfg).Build(in)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if !strings.Contains(plan.FilterGraph, "drawtext=") {
		t.Error("Expected word captions with word tokens available")
	}
	if strings.Contains(plan.FilterGraph, "subtitles=") {
		t.Error("Expected no subtitle file when word captions are used")
	}
	if len(plan.Intermediates) != 0 {
		t.Errorf("Expected no intermediates in word mode, got %v", plan.Intermediates)
	}
}

func TestBuild_LineCaptionFallback(t *testing.T) {
	cfg, in := testFixtures(t)
	in.WordTokens = nil

	plan, err := NewBuilder(cfg).Build(in)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if !strings.Contains(plan.FilterGraph, "subtitles=") {
		t.Error("Expected subtitle filter without word tokens")
	}
	if strings.Contains(plan.FilterGraph, "drawtext=") {
		t.Error("Expected no drawtext stages without word tokens")
	}
	if len(plan.Intermediates) != 1 {
		t.Fatalf("Expected subtitle intermediate, got %v", plan.Intermediates)
	}
	if _, err := os.Stat(plan.Intermediates[0]); err != nil {
		t.Errorf("Expected subtitle file on disk: %v", err)
	}
}

func TestBuild_NoCaptionSources(t *testing.T) {
	cfg, in := testFixtures(t)
	in.WordTokens = nil
	in.Intervals = nil

	plan, err := NewBuilder(cfg).Build(in)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if strings.Contains(plan.FilterGraph, "drawtext=") || strings.Contains(plan.FilterGraph, "subtitles=") {
		t.Errorf("Expected captionless graph, got %q", plan.FilterGraph)
	}
}

func TestBuild_MissingBackground(t *testing.T) {
	cfg, in := testFixtures(t)
	cfg.Render.Background = "/nonexistent/bg.mp4"

	if _, err := NewBuilder(cfg).Build(in); err == nil {
		t.Fatal("Expected error for missing background, got nil")
	}
}

func TestBuild_MissingPortraitIsFatal(t *testing.T) {
	cfg, in := testFixtures(t)
	in.Characters[0].SourceFile = "/nonexistent/petey.png"

	if _, err := NewBuilder(cfg).Build(in); err == nil {
		t.Fatal("Expected error for missing portrait, got nil")
	}
}

func TestBuild_MissingImageIsSkipped(t *testing.T) {
	cfg, in := testFixtures(t)
	in.Images[0].SourceFile = "/nonexistent/eiffel.png"

	plan, err := NewBuilder(cfg).Build(in)
	if err != nil {
		t.Fatalf("Expected missing image to be skipped, got error: %v", err)
	}
	if len(plan.Inputs) != 3 {
		t.Errorf("Expected 3 inputs after skipping image, got %d", len(plan.Inputs))
	}
	if strings.Contains(plan.FilterGraph, "[img0]") {
		t.Errorf("Expected no image overlay stage, got %q", plan.FilterGraph)
	}
}
