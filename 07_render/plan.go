package render

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

// Builder composes render plans: a looped 9:16 background, character and
// image overlays, captions, and the audio track, all in one filter graph.
type Builder struct {
	cfg *config.Config
}

// NewBuilder creates a Builder.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// BuildInput is everything a render plan is derived from.
type BuildInput struct {
	AudioPath   string
	DurationSec float64
	Characters  []types.OverlayWindow
	Images      []types.OverlayWindow
	WordTokens  []types.WordToken
	Intervals   []types.TimelineInterval
	OutDir      string
}

// Build assembles the filter graph in fixed stage order: background first,
// then character overlays, then image overlays, then captions. The
// background and every character portrait must exist; a missing image
// overlay file is skipped. Word-level captions are used whenever word tokens
// are available, otherwise whole-line subtitles are generated from the
// intervals.
func (b *Builder) Build(in BuildInput) (*types.RenderPlan, error) {
	if err := requireFile("background", b.cfg.Render.Background); err != nil {
		return nil, err
	}
	if err := requireFile("combined audio", in.AudioPath); err != nil {
		return nil, err
	}
	for _, w := range in.Characters {
		if err := requireFile(fmt.Sprintf("portrait for %s", w.Identity), w.SourceFile); err != nil {
			return nil, err
		}
	}

	plan := &types.RenderPlan{
		DurationSec: in.DurationSec,
		AudioMap:    "1:a",
		OutputPath:  filepath.Join(in.OutDir, "final_video.mp4"),
	}
	plan.Inputs = []types.RenderInput{
		{PreArgs: []string{"-stream_loop", "-1"}, Path: b.cfg.Render.Background},
		{Path: in.AudioPath},
	}

	var g Graph
	cur := g.Chain("0:v", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d,setsar=1",
		b.cfg.Render.Width, b.cfg.Render.Height, b.cfg.Render.Width, b.cfg.Render.Height, b.cfg.Render.FPS), "bg")

	cur = b.addOverlays(&g, plan, cur, "ch", in.Characters)

	kept := make([]types.OverlayWindow, 0, len(in.Images))
	for _, w := range in.Images {
		if err := requireFile("image", w.SourceFile); err != nil {
			log.Printf("[render] skipping image overlay %q: %v", w.Identity, err)
			continue
		}
		kept = append(kept, w)
	}
	cur = b.addOverlays(&g, plan, cur, "img", kept)

	cur = b.addCaptions(&g, plan, cur, in)

	g.Chain(cur, "format=yuv420p", "vout")
	plan.FilterGraph = g.String()
	plan.VideoLabel = "[vout]"

	log.Printf("[render] plan: %d inputs, %d filter stages, %.2fs", len(plan.Inputs), g.Len(), in.DurationSec)
	return plan, nil
}

// addOverlays appends one scale node and one overlay node per window. Every
// window gets its own input stream and scale stage, so the same portrait
// appearing in many windows never shares a filter chain.
func (b *Builder) addOverlays(g *Graph, plan *types.RenderPlan, cur, prefix string, windows []types.OverlayWindow) string {
	for i, w := range windows {
		inputIdx := len(plan.Inputs)
		plan.Inputs = append(plan.Inputs, types.RenderInput{Path: w.SourceFile})

		scaled := g.Chain(fmt.Sprintf("%d:v", inputIdx), w.ScaleFilter, fmt.Sprintf("%s%ds", prefix, i))
		overlay := fmt.Sprintf("overlay=x='%s':y='%s':enable='between(t,%.3f,%.3f)'",
			w.XExpr, w.YExpr, w.AnimationStart, w.AnimationEnd)
		cur = g.Add([]string{cur, scaled}, overlay, fmt.Sprintf("%s%d", prefix, i))
	}
	return cur
}

// addCaptions picks the caption mode: per-word drawtext stages when word
// tokens exist, a burned-in subtitle file when only intervals are available,
// nothing otherwise.
func (b *Builder) addCaptions(g *Graph, plan *types.RenderPlan, cur string, in BuildInput) string {
	if len(in.WordTokens) > 0 {
		for i, tok := range in.WordTokens {
			cur = g.Chain(cur, b.wordFilter(tok), fmt.Sprintf("cap%d", i))
		}
		return cur
	}

	if len(in.Intervals) == 0 {
		return cur
	}
	assPath := filepath.Join(in.OutDir, "captions.ass")
	if err := os.WriteFile(assPath, []byte(b.buildASS(in.Intervals)), 0644); err != nil {
		log.Printf("[render] ⚠️ could not write subtitle file, captions disabled: %v", err)
		return cur
	}
	plan.Intermediates = append(plan.Intermediates, assPath)
	return g.Chain(cur, fmt.Sprintf("subtitles=%s", escapeSubtitlePath(assPath)), "sub")
}

func requireFile(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s path is empty", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s not found at %s", what, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s at %s is empty", what, path)
	}
	return nil
}
