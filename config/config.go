package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Topics   TopicsConfig   `yaml:"topics"`
	Script   ScriptConfig   `yaml:"script"`
	Speech   SpeechConfig   `yaml:"speech"`
	Timeline TimelineConfig `yaml:"timeline"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Captions CaptionsConfig `yaml:"captions"`
	Overlays OverlaysConfig `yaml:"overlays"`
	Render   RenderConfig   `yaml:"render"`
	Server   ServerConfig   `yaml:"server"`
	Paths    PathsConfig    `yaml:"paths"`
}

type TopicsConfig struct {
	Subreddits    []string `yaml:"subreddits"`
	MinScore      int      `yaml:"min_score"`
	MaxTitleWords int      `yaml:"max_title_words"`
	LookbackDays  int      `yaml:"lookback_days"`
	FetchLimit    int      `yaml:"fetch_limit"`
}

type ScriptConfig struct {
	GroqModel   string  `yaml:"groq_model"`
	Temperature float64 `yaml:"temperature"`
	MaxLines    int     `yaml:"max_lines"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// CharacterConfig describes one of the two on-screen characters: voice,
// portrait asset, and where it sits once slid in.
type CharacterConfig struct {
	Name     string `yaml:"name"`
	VoiceID  string `yaml:"voice_id"`
	Portrait string `yaml:"portrait"`
	Edge     string `yaml:"edge"` // left | right
	MarginX  int    `yaml:"margin_x"`
	RestY    int    `yaml:"rest_y"`
	Width    int    `yaml:"width"`
}

type SpeechConfig struct {
	Provider   string                     `yaml:"provider"`
	ModelID    string                     `yaml:"model_id"`
	Characters map[string]CharacterConfig `yaml:"characters"` // keyed by speaker ID
	TimeoutSec int                        `yaml:"timeout_sec"`
}

type TimelineConfig struct {
	GapSec          float64 `yaml:"gap_sec"`
	VolumeBoost     float64 `yaml:"volume_boost"`
	SampleRate      int     `yaml:"sample_rate"`
	FallbackClipSec float64 `yaml:"fallback_clip_sec"`
	ProbeTimeoutSec int     `yaml:"probe_timeout_sec"`
	ForceConcat     bool    `yaml:"force_concat"`
}

type VisualsConfig struct {
	GenerateMissing bool `yaml:"generate_missing"`
}

type CaptionsConfig struct {
	BaseWordSec  float64 `yaml:"base_word_sec"`
	Font         string  `yaml:"font"`
	FontFile     string  `yaml:"font_file"`
	FontSize     int     `yaml:"font_size"`
	FontColor    string  `yaml:"font_color"`
	OutlineColor string  `yaml:"outline_color"`
	OutlineWidth int     `yaml:"outline_width"`
	MarginBottom int     `yaml:"margin_bottom"`
	PopSec       float64 `yaml:"pop_sec"`
	PopScale     float64 `yaml:"pop_scale"`
	FadeSec      float64 `yaml:"fade_sec"`
}

type OverlaysConfig struct {
	PreRollSec        float64 `yaml:"pre_roll_sec"`
	PostRollSec       float64 `yaml:"post_roll_sec"`
	CharacterSlideSec float64 `yaml:"character_slide_sec"`
	ImageSlideSec     float64 `yaml:"image_slide_sec"`
	MinImageWindowSec float64 `yaml:"min_image_window_sec"`
	ImageWidth        int     `yaml:"image_width"`
	ImageHeight       int     `yaml:"image_height"`
	ImageRestY        int     `yaml:"image_rest_y"`
}

type RenderConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	Background   string `yaml:"background"`
	FFmpegBin    string `yaml:"ffmpeg_bin"`
	VideoCodec   string `yaml:"video_codec"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioBitrate string `yaml:"audio_bitrate"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type PathsConfig struct {
	Output        string `yaml:"output"`
	Images        string `yaml:"images"`
	UsedTopicsLog string `yaml:"used_topics_log"`
}

// Load reads a yaml config file over the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration. Every component must be
// constructible from it without a config file on disk.
func Default() *Config {
	return &Config{
		Topics: TopicsConfig{
			Subreddits:    []string{"AskReddit", "explainlikeimfive", "todayilearned"},
			MinScore:      500,
			MaxTitleWords: 18,
			LookbackDays:  7,
			FetchLimit:    25,
		},
		Script: ScriptConfig{
			GroqModel:   "llama-3.3-70b-versatile",
			Temperature: 0.8,
			MaxLines:    14,
			MaxTokens:   2048,
		},
		Speech: SpeechConfig{
			Provider: "elevenlabs",
			ModelID:  "eleven_multilingual_v2",
			Characters: map[string]CharacterConfig{
				"A": {
					Name:     "Petey",
					VoiceID:  "pNInz6obpgDQGcFmaJgB",
					Portrait: "assets/petey.png",
					Edge:     "left",
					MarginX:  24,
					RestY:    1210,
					Width:    420,
				},
				"B": {
					Name:     "Bryan",
					VoiceID:  "ErXwobaYiN019PkySvjV",
					Portrait: "assets/bryan.png",
					Edge:     "right",
					MarginX:  24,
					RestY:    1210,
					Width:    420,
				},
			},
			TimeoutSec: 60,
		},
		Timeline: TimelineConfig{
			GapSec:          0.8,
			VolumeBoost:     1.5,
			SampleRate:      44100,
			FallbackClipSec: 3.0,
			ProbeTimeoutSec: 15,
		},
		Visuals: VisualsConfig{
			GenerateMissing: true,
		},
		Captions: CaptionsConfig{
			BaseWordSec:  0.30,
			Font:         "Arial",
			FontSize:     72,
			FontColor:    "#FFFFFF",
			OutlineColor: "#000000",
			OutlineWidth: 4,
			MarginBottom: 660,
			PopSec:       0.12,
			PopScale:     1.25,
			FadeSec:      0.08,
		},
		Overlays: OverlaysConfig{
			PreRollSec:        0.2,
			PostRollSec:       0.6,
			CharacterSlideSec: 0.8,
			ImageSlideSec:     0.4,
			MinImageWindowSec: 0.5,
			ImageWidth:        760,
			ImageHeight:       560,
			ImageRestY:        260,
		},
		Render: RenderConfig{
			Width:        1080,
			Height:       1920,
			FPS:          30,
			Background:   "assets/background.mp4",
			FFmpegBin:    "ffmpeg",
			VideoCodec:   "libx264",
			Preset:       "fast",
			CRF:          22,
			AudioBitrate: "192k",
			TimeoutSec:   300,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Paths: PathsConfig{
			Output:        "output",
			Images:        "images",
			UsedTopicsLog: "output/used_topics.log",
		},
	}
}

// Character returns the configuration for a speaker ID.
func (c *Config) Character(speaker string) (CharacterConfig, error) {
	ch, ok := c.Speech.Characters[speaker]
	if !ok {
		return CharacterConfig{}, fmt.Errorf("no character configured for speaker %q", speaker)
	}
	return ch, nil
}
