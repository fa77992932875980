package overlays

import (
	"fmt"
	"log"
	"math"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

// ImageResolver maps a placeholder name to a local file path, or "" when no
// image was supplied for it.
type ImageResolver interface {
	Resolve(name string) string
}

// Planner computes animation windows and time-parameterized position
// expressions for character and image overlays.
type Planner struct {
	cfg *config.Config
}

// New creates a new Planner.
func New(cfg *config.Config) *Planner {
	return &Planner{cfg: cfg}
}

// Plan emits one character overlay window per speaking interval. Windows are
// padded by the configured pre-roll (clamped at 0) and post-roll, so the
// character is already sliding in when speech starts and lingers briefly
// after it ends. Adjacent intervals of the same speaker are not merged.
func (p *Planner) Plan(intervals []types.TimelineInterval) ([]types.OverlayWindow, error) {
	slide := p.cfg.Overlays.CharacterSlideSec
	wins := make([]types.OverlayWindow, 0, len(intervals))

	for _, iv := range intervals {
		ch, err := p.cfg.Character(iv.Speaker)
		if err != nil {
			return nil, fmt.Errorf("plan overlay for line %d: %w", iv.LineIndex, err)
		}

		animStart := math.Max(0, iv.Start-p.cfg.Overlays.PreRollSec)
		animEnd := iv.End + p.cfg.Overlays.PostRollSec
		slideInEnd, slideOutStart, short := phases(animStart, animEnd, slide)

		off, rest := edgePositions(ch)
		wins = append(wins, types.OverlayWindow{
			Kind:           types.OverlayCharacter,
			Identity:       iv.Speaker,
			SourceFile:     ch.Portrait,
			AnimationStart: animStart,
			SlideInEnd:     slideInEnd,
			SlideOutStart:  slideOutStart,
			AnimationEnd:   animEnd,
			XExpr:          slideExpr(off, rest, animStart, slideInEnd, slideOutStart, animEnd, slide, short),
			YExpr:          fmt.Sprintf("%d", ch.RestY),
			ScaleFilter:    fmt.Sprintf("scale=%d:-1", ch.Width),
		})
	}

	log.Printf("[overlays] planned %d character windows", len(wins))
	return wins, nil
}

// PlanImages turns placeholder trigger points into image overlay windows.
// Triggers come from placeholder-bearing word tokens; each window runs from
// its trigger until the next trigger (or the end of the audio), images never
// overlap, and a window squeezed under the minimum duration keeps the
// minimum while the following window's start is pushed back. Placeholders
// the resolver cannot satisfy produce no window.
func (p *Planner) PlanImages(tokens []types.WordToken, totalDuration float64, images ImageResolver) []types.OverlayWindow {
	type trigger struct {
		name  string
		start float64
	}
	var triggers []trigger
	for _, tok := range tokens {
		if tok.ImagePlaceholder != "" {
			triggers = append(triggers, trigger{name: tok.ImagePlaceholder, start: tok.Start})
		}
	}
	if len(triggers) == 0 {
		return nil
	}

	slide := p.cfg.Overlays.ImageSlideSec
	minDur := p.cfg.Overlays.MinImageWindowSec
	var wins []types.OverlayWindow
	var prevEnd float64

	for i, tr := range triggers {
		start := tr.start
		if i > 0 && start < prevEnd {
			start = prevEnd
		}
		end := totalDuration
		if i+1 < len(triggers) {
			end = triggers[i+1].start
		}
		if end < start+minDur {
			end = start + minDur
		}
		prevEnd = end

		file := images.Resolve(tr.name)
		if file == "" {
			log.Printf("[overlays] no image for placeholder %q — skipping", tr.name)
			continue
		}

		slideInEnd, slideOutStart, short := phases(start, end, slide)
		wins = append(wins, types.OverlayWindow{
			Kind:           types.OverlayImage,
			Identity:       tr.name,
			SourceFile:     file,
			AnimationStart: start,
			SlideInEnd:     slideInEnd,
			SlideOutStart:  slideOutStart,
			AnimationEnd:   end,
			XExpr:          "(W-w)/2",
			YExpr:          slideExpr("-h", fmt.Sprintf("%d", p.cfg.Overlays.ImageRestY), start, slideInEnd, slideOutStart, end, slide, short),
			ScaleFilter:    fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", p.cfg.Overlays.ImageWidth, p.cfg.Overlays.ImageHeight),
		})
	}

	log.Printf("[overlays] planned %d image windows (%d triggers)", len(wins), len(triggers))
	return wins
}

// phases splits a window into slide-in / hold / slide-out boundaries. A short
// window (span at most twice the slide duration) eases in across the whole
// window and gets no slide-out phase.
func phases(animStart, animEnd, slide float64) (slideInEnd, slideOutStart float64, short bool) {
	if animEnd-animStart <= 2*slide {
		return math.Min(animStart+slide, animEnd), animEnd, true
	}
	return animStart + slide, animEnd - slide, false
}

// edgePositions returns the off-screen and rest x positions for a character.
// W and w are the renderer's frame and overlay width variables.
func edgePositions(ch config.CharacterConfig) (off, rest string) {
	if ch.Edge == "right" {
		return "W", fmt.Sprintf("W-w-%d", ch.MarginX)
	}
	return "-w", fmt.Sprintf("%d", ch.MarginX)
}

// slideExpr builds the position-as-a-function-of-t expression for one axis:
// quartic ease-out from off to rest, an optional hold at rest, and the
// mirrored ease back out. The expression is only evaluated inside the
// window's enable range.
func slideExpr(off, rest string, animStart, slideInEnd, slideOutStart, animEnd, slide float64, short bool) string {
	in := easedPos(off, rest, fmt.Sprintf("min(1,(t-%.3f)/%.3f)", animStart, slide))
	if short {
		return in
	}
	out := easedPos(off, rest, fmt.Sprintf("min(1,(%.3f-t)/%.3f)", animEnd, slide))
	return fmt.Sprintf("if(lt(t,%.3f),%s,if(lt(t,%.3f),%s,%s))", slideInEnd, in, slideOutStart, rest, out)
}

// easedPos interpolates between two position expressions with 1-(1-p)^4.
func easedPos(off, rest, progress string) string {
	return fmt.Sprintf("(%s)+((%s)-(%s))*(1-pow(1-%s,4))", off, rest, off, progress)
}
