package types

// Canonical speaker IDs for the two conversation characters.
const (
	SpeakerA = "A"
	SpeakerB = "B"
)

// DialogueLine is one spoken line of the generated conversation.
// Order is significant: insertion order is speaking order.
type DialogueLine struct {
	Index            int    `json:"index"`
	Speaker          string `json:"speaker"` // "A" | "B"
	Text             string `json:"text"`
	ImagePlaceholder string `json:"image_placeholder,omitempty"`
}

// SpeechClip is the synthesized audio for one DialogueLine. Duration is not
// carried here; the timeline assembler probes the file itself.
type SpeechClip struct {
	Speaker   string `json:"speaker"`
	LineIndex int    `json:"line_index"`
	AudioFile string `json:"audio_file"`
	Text      string `json:"text"`
}

// TimelineInterval places one clip on the combined audio track.
// Intervals are non-overlapping and strictly increasing in Start.
type TimelineInterval struct {
	Speaker   string  `json:"speaker"`
	LineIndex int     `json:"line_index"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
}

// Segment is a TimelineInterval joined back with its script line, ready for
// word timing estimation.
type Segment struct {
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Speaker          string  `json:"speaker"`
	Text             string  `json:"text"`
	ImagePlaceholder string  `json:"image_placeholder,omitempty"`
}

// WordToken is one caption word with its display window. Tokens of a segment
// cover the segment span exactly, end-to-end. Only the first token of a
// segment carries the segment's image placeholder.
type WordToken struct {
	Text             string  `json:"text"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Speaker          string  `json:"speaker"`
	ImagePlaceholder string  `json:"image_placeholder,omitempty"`
}

// Overlay kinds.
const (
	OverlayCharacter = "character"
	OverlayImage     = "image"
)

// OverlayWindow is one animated visual composited onto the background for a
// bounded time window. XExpr/YExpr are renderer position expressions in t,
// valid within [AnimationStart, AnimationEnd]. Computed fresh per render,
// never persisted.
type OverlayWindow struct {
	Kind           string  `json:"kind"` // character | image
	Identity       string  `json:"identity"`
	SourceFile     string  `json:"source_file"`
	AnimationStart float64 `json:"animation_start"`
	SlideInEnd     float64 `json:"slide_in_end"`
	SlideOutStart  float64 `json:"slide_out_start"`
	AnimationEnd   float64 `json:"animation_end"`
	XExpr          string  `json:"x_expr"`
	YExpr          string  `json:"y_expr"`
	ScaleFilter    string  `json:"scale_filter"`
}

// RenderInput is one input source of a render plan. PreArgs are encoder flags
// that must precede this input on the command line.
type RenderInput struct {
	PreArgs []string `json:"pre_args,omitempty"`
	Path    string   `json:"path"`
}

// RenderPlan is the terminal artifact handed to the encoder subprocess:
// ordered inputs, a serialized filter graph, and output parameters. Consumed
// exactly once.
type RenderPlan struct {
	Inputs      []RenderInput `json:"inputs"`
	FilterGraph string        `json:"filter_graph"`
	VideoLabel  string        `json:"video_label"` // final graph output, e.g. [vout]
	AudioMap    string        `json:"audio_map"`   // input stream spec, e.g. 1:a
	DurationSec float64       `json:"duration_sec"`
	OutputPath  string        `json:"output_path"`
	// Intermediates are files created while building the plan (caption files,
	// scaled assets); the encoder removes them on success and failure alike.
	Intermediates []string `json:"intermediates,omitempty"`
}

// RunState tracks one generation run end to end.
type RunState struct {
	RunID       string             `json:"run_id"`
	Topic       string             `json:"topic"`
	StartedAt   string             `json:"started_at"`
	CompletedAt string             `json:"completed_at"`
	Dialogue    []DialogueLine     `json:"dialogue,omitempty"`
	Intervals   []TimelineInterval `json:"intervals,omitempty"`
	AudioFile   string             `json:"audio_file,omitempty"`
	VideoFile   string             `json:"video_file,omitempty"`
	DurationSec float64            `json:"duration_sec,omitempty"`
	Error       string             `json:"error,omitempty"`
}
