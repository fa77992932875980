package audio

import (
	"math"
	"strings"
	"testing"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestComputeIntervals_RoundTrip(t *testing.T) {
	intervals := computeIntervals([]float64{2.0, 3.5}, 0.8)

	if len(intervals) != 2 {
		t.Fatalf("Expected 2 intervals, got %d", len(intervals))
	}
	if intervals[0].Start != 0 {
		t.Errorf("Expected first interval to start at 0, got %.3f", intervals[0].Start)
	}
	if !almostEqual(intervals[0].End, 2.0) {
		t.Errorf("Expected first interval end 2.0, got %.3f", intervals[0].End)
	}
	if !almostEqual(intervals[1].Start, 2.8) {
		t.Errorf("Expected second interval start 2.8, got %.3f", intervals[1].Start)
	}
	if !almostEqual(intervals[1].End, 6.3) {
		t.Errorf("Expected second interval end 6.3, got %.3f", intervals[1].End)
	}
}

func TestComputeIntervals_MonotonicTimeline(t *testing.T) {
	durations := []float64{1.2, 0.4, 3.7, 2.25, 0.9}
	gap := 0.8
	intervals := computeIntervals(durations, gap)

	if intervals[0].Start != 0 {
		t.Errorf("Expected timeline to start at 0, got %.3f", intervals[0].Start)
	}
	for i, iv := range intervals {
		if !almostEqual(iv.End-iv.Start, durations[i]) {
			t.Errorf("Interval %d: expected span %.3f, got %.3f", i, durations[i], iv.End-iv.Start)
		}
		if i > 0 && !almostEqual(iv.Start, intervals[i-1].End+gap) {
			t.Errorf("Interval %d: expected start %.3f, got %.3f", i, intervals[i-1].End+gap, iv.Start)
		}
	}
}

func TestComputeIntervals_Empty(t *testing.T) {
	if intervals := computeIntervals(nil, 0.8); len(intervals) != 0 {
		t.Errorf("Expected no intervals, got %d", len(intervals))
	}
}

func TestMixFilter(t *testing.T) {
	a := NewAssembler(config.Default(), nil)
	intervals := computeIntervals([]float64{2.0, 3.5}, 0.8)

	filter := a.mixFilter(intervals, []float64{2.0, 3.5})
	parts := strings.Split(filter, ";")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 filter parts, got %d: %q", len(parts), filter)
	}

	if parts[0] != "[1:a]atrim=duration=2.000,volume=1.50,adelay=0|0[c0]" {
		t.Errorf("Unexpected first clip filter: %q", parts[0])
	}
	if parts[1] != "[2:a]atrim=duration=3.500,volume=1.50,adelay=2800|2800[c1]" {
		t.Errorf("Unexpected second clip filter: %q", parts[1])
	}
	if parts[2] != "[0:a][c0][c1]amix=inputs=3:duration=first:dropout_transition=0:normalize=0[aout]" {
		t.Errorf("Unexpected mix stage: %q", parts[2])
	}
}

func TestMixArgs(t *testing.T) {
	a := NewAssembler(config.Default(), nil)
	clips := []types.SpeechClip{
		{AudioFile: "/tmp/run/line_00_petey.mp3"},
		{AudioFile: "/tmp/run/line_01_bryan.mp3"},
	}
	durations := []float64{2.0, 3.5}
	intervals := computeIntervals(durations, 0.8)

	args := a.mixArgs(clips, intervals, durations, 6.3, "/tmp/run/combined_audio.mp3")
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "anullsrc=r=44100:cl=stereo:d=6.300") {
		t.Errorf("Expected silent base of total duration, got %q", joined)
	}
	if !strings.Contains(joined, "-i /tmp/run/line_00_petey.mp3 -i /tmp/run/line_01_bryan.mp3") {
		t.Errorf("Expected clip inputs in order, got %q", joined)
	}
	if !strings.Contains(joined, "-map [aout]") {
		t.Errorf("Expected mixed output mapping, got %q", joined)
	}
	if args[len(args)-1] != "/tmp/run/combined_audio.mp3" {
		t.Errorf("Expected output path last, got %q", args[len(args)-1])
	}
}

func TestConcatList(t *testing.T) {
	got := concatList([]string{"/r/a.mp3", "/r/b.mp3", "/r/c.mp3"}, "/r/gap.mp3")
	want := "file '/r/a.mp3'\n" +
		"file '/r/gap.mp3'\n" +
		"file '/r/b.mp3'\n" +
		"file '/r/gap.mp3'\n" +
		"file '/r/c.mp3'\n"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestConcatList_SingleClip(t *testing.T) {
	got := concatList([]string{"/r/only.mp3"}, "/r/gap.mp3")
	if got != "file '/r/only.mp3'\n" {
		t.Errorf("Single clip needs no silence, got %q", got)
	}
}
