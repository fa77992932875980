package timing

import (
	"log"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

// Estimator distributes word-level caption windows across segment spans.
// Word boundaries are computed from the script text, never from speech
// recognition: the script is always accurate for content, and the segment
// span is already known from the assembled timeline.
type Estimator struct {
	cfg *config.Config
}

// New creates a new Estimator.
func New(cfg *config.Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate lays the words of every segment end-to-end across that segment's
// [start,end] span. Per segment the token spans partition the segment
// exactly: longer words get more display time, weights are renormalized so
// they sum to the segment duration, and the final token is pinned to the
// segment end. A segment that cleans down to zero words is skipped; the next
// segment starts from its own span and is unaffected.
func (e *Estimator) Estimate(segments []types.Segment) []types.WordToken {
	var tokens []types.WordToken

	for _, seg := range segments {
		words := cleanWords(seg.Text)
		if len(words) == 0 {
			continue
		}
		span := seg.End - seg.Start
		if span <= 0 {
			continue
		}

		weights := make([]float64, len(words))
		var total float64
		for i, w := range words {
			weights[i] = e.wordWeight(w)
			total += weights[i]
		}
		if total <= 0 {
			continue
		}

		scale := span / total
		cursor := seg.Start
		for i, w := range words {
			tok := types.WordToken{
				Text:    w,
				Start:   cursor,
				End:     cursor + weights[i]*scale,
				Speaker: seg.Speaker,
			}
			if i == 0 {
				tok.ImagePlaceholder = seg.ImagePlaceholder
			}
			tokens = append(tokens, tok)
			cursor = tok.End
		}
		// Absorb accumulated rounding into the last token.
		tokens[len(tokens)-1].End = seg.End
	}

	log.Printf("[timing] %d segments → %d word tokens", len(segments), len(tokens))
	return tokens
}

// wordWeight gives longer words proportionally more display time, capped at
// 1.3x the base word duration. Length is measured in runes.
func (e *Estimator) wordWeight(word string) float64 {
	factor := 0.7 + 0.6*math.Min(float64(utf8.RuneCountInString(word))/6.0, 1.5)
	if factor > 1.3 {
		factor = 1.3
	}
	return e.cfg.Captions.BaseWordSec * factor
}

// cleanWords splits text on whitespace and strips punctuation from each
// token, keeping only '!' and '?'. Tokens that clean down to nothing are
// dropped.
func cleanWords(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := stripPunct(f); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsPunct(r) && r != '!' && r != '?' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
