package timing

import (
	"math"
	"reflect"
	"testing"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestEstimate_PartitionInvariant(t *testing.T) {
	est := New(config.Default())

	seg := types.Segment{
		Start:   2.8,
		End:     6.3,
		Speaker: types.SpeakerA,
		Text:    "honestly the whole thing is more complicated than it looks",
	}
	tokens := est.Estimate([]types.Segment{seg})

	if len(tokens) == 0 {
		t.Fatal("Expected tokens, got none")
	}

	if !almostEqual(tokens[0].Start, seg.Start) {
		t.Errorf("Expected first token to start at %v, got %v", seg.Start, tokens[0].Start)
	}
	if !almostEqual(tokens[len(tokens)-1].End, seg.End) {
		t.Errorf("Expected last token to end at %v, got %v", seg.End, tokens[len(tokens)-1].End)
	}

	var sum float64
	for i, tok := range tokens {
		sum += tok.End - tok.Start
		if i > 0 && tokens[i-1].End != tok.Start {
			t.Errorf("Token %d: expected start %v to equal previous end %v", i, tok.Start, tokens[i-1].End)
		}
	}
	if !almostEqual(sum, seg.End-seg.Start) {
		t.Errorf("Expected durations to sum to %v, got %v", seg.End-seg.Start, sum)
	}
}

func TestEstimate_WeightOrdering(t *testing.T) {
	est := New(config.Default())

	// One short and one long word in the same segment: the longer word must
	// get strictly more display time, clamped at 1.3x base.
	tokens := est.Estimate([]types.Segment{{
		Start: 0, End: 2.0, Speaker: types.SpeakerB, Text: "cat astonishingly",
	}})

	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(tokens))
	}
	short := tokens[0].End - tokens[0].Start
	long := tokens[1].End - tokens[1].Start
	if long <= short {
		t.Errorf("Expected longer word to get more time: short=%v long=%v", short, long)
	}
	// len 3 → factor 1.0, len >= 6 → clamped factor 1.3.
	if !almostEqual(long/short, 1.3) {
		t.Errorf("Expected duration ratio 1.3, got %v", long/short)
	}
}

func TestEstimate_WeightCap(t *testing.T) {
	est := New(config.Default())

	// Words of length 6 and 30 both sit at the cap and split the span evenly.
	tokens := est.Estimate([]types.Segment{{
		Start: 0, End: 3.0, Speaker: types.SpeakerA,
		Text: "crayon pneumonoultramicroscopicsilico",
	}})

	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(tokens))
	}
	d0 := tokens[0].End - tokens[0].Start
	d1 := tokens[1].End - tokens[1].Start
	if !almostEqual(d0, d1) {
		t.Errorf("Expected capped words to split evenly, got %v and %v", d0, d1)
	}
}

func TestEstimate_DegenerateSegment(t *testing.T) {
	est := New(config.Default())

	segs := []types.Segment{
		{Start: 0, End: 2.0, Speaker: types.SpeakerA, Text: "hello there"},
		{Start: 2.8, End: 3.6, Speaker: types.SpeakerB, Text: "..."},
		{Start: 4.4, End: 6.0, Speaker: types.SpeakerA, Text: "still here"},
	}
	tokens := est.Estimate(segs)

	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens (middle segment empty), got %d", len(tokens))
	}
	// The punctuation-only segment must not shift the following segment.
	if !almostEqual(tokens[2].Start, 4.4) {
		t.Errorf("Expected third segment to start at 4.4, got %v", tokens[2].Start)
	}
	if !almostEqual(tokens[3].End, 6.0) {
		t.Errorf("Expected last token to end at 6.0, got %v", tokens[3].End)
	}
}

func TestEstimate_PlaceholderOnFirstTokenOnly(t *testing.T) {
	est := New(config.Default())

	tokens := est.Estimate([]types.Segment{{
		Start: 0, End: 3.0, Speaker: types.SpeakerA,
		Text:             "look at this picture right here",
		ImagePlaceholder: "eiffel-tower",
	}})

	if len(tokens) < 2 {
		t.Fatalf("Expected several tokens, got %d", len(tokens))
	}
	if tokens[0].ImagePlaceholder != "eiffel-tower" {
		t.Errorf("Expected placeholder on first token, got %q", tokens[0].ImagePlaceholder)
	}
	for i, tok := range tokens[1:] {
		if tok.ImagePlaceholder != "" {
			t.Errorf("Token %d: expected no placeholder, got %q", i+1, tok.ImagePlaceholder)
		}
	}
}

func TestEstimate_SkipsZeroSpanSegment(t *testing.T) {
	est := New(config.Default())

	tokens := est.Estimate([]types.Segment{
		{Start: 1.0, End: 1.0, Speaker: types.SpeakerA, Text: "ghost words"},
		{Start: 1.8, End: 3.0, Speaker: types.SpeakerB, Text: "real words"},
	})

	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens from the valid segment, got %d", len(tokens))
	}
	if !almostEqual(tokens[0].Start, 1.8) {
		t.Errorf("Expected tokens to begin at 1.8, got %v", tokens[0].Start)
	}
}

func TestCleanWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"Plain words", "hello there world", []string{"hello", "there", "world"}},
		{"Strips commas and periods", "well, actually. no", []string{"well", "actually", "no"}},
		{"Keeps exclamation and question marks", "what?! really okay?", []string{"what?!", "really", "okay?"}},
		{"All punctuation drops out", "... --- ,,,", nil},
		{"Apostrophes stripped", "don't panic", []string{"dont", "panic"}},
		{"Extra whitespace", "  spaced   out  ", []string{"spaced", "out"}},
		{"Empty string", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanWords(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cleanWords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimate_NoSegments(t *testing.T) {
	est := New(config.Default())
	if tokens := est.Estimate(nil); len(tokens) != 0 {
		t.Errorf("Expected no tokens for empty input, got %d", len(tokens))
	}
}
