package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

const elevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"

// Synthesizer turns dialogue lines into per-line speech clips on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, lines []types.DialogueLine, outDir string) ([]types.SpeechClip, error)
}

// ElevenLabs synthesizes speech through the ElevenLabs TTS API, one request
// per dialogue line, using each character's configured voice.
type ElevenLabs struct {
	cfg    *config.Config
	apiKey string
	client *http.Client
}

// NewElevenLabs reads the API key from ELEVENLABS_API_KEY.
func NewElevenLabs(cfg *config.Config) *ElevenLabs {
	return &ElevenLabs{
		cfg:    cfg,
		apiKey: os.Getenv("ELEVENLABS_API_KEY"),
		client: &http.Client{Timeout: time.Duration(cfg.Speech.TimeoutSec) * time.Second},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize renders every line in order. Any line failing all retries fails
// the whole batch; a partial conversation is worthless downstream.
func (e *ElevenLabs) Synthesize(ctx context.Context, lines []types.DialogueLine, outDir string) ([]types.SpeechClip, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY not set")
	}

	clips := make([]types.SpeechClip, 0, len(lines))
	for _, line := range lines {
		ch, err := e.cfg.Character(line.Speaker)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.Index, err)
		}

		outPath := clipFileName(outDir, line.Index, ch.Name)
		if err := e.synthesizeLine(ctx, line.Text, ch.VoiceID, outPath); err != nil {
			return nil, fmt.Errorf("synthesize line %d: %w", line.Index, err)
		}
		log.Printf("[speech] line %d (%s): %d chars → %s", line.Index, ch.Name, len(line.Text), filepath.Base(outPath))

		clips = append(clips, types.SpeechClip{
			Speaker:   line.Speaker,
			LineIndex: line.Index,
			AudioFile: outPath,
			Text:      line.Text,
		})
	}
	return clips, nil
}

func (e *ElevenLabs) synthesizeLine(ctx context.Context, text, voiceID, outPath string) error {
	maxRetries := 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("[speech] ⚠️ retry %d/%d for %s", attempt, maxRetries, filepath.Base(outPath))
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := e.requestSpeech(ctx, text, voiceID, outPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (e *ElevenLabs) requestSpeech(ctx context.Context, text, voiceID, outPath string) error {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: e.cfg.Speech.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/%s", elevenLabsURL, voiceID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("TTS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("TTS API returned %d: %s", resp.StatusCode, msg)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("TTS API returned empty audio")
	}
	return os.WriteFile(outPath, data, 0644)
}

// clipFileName builds a stable per-line file name that sorts in speaking
// order.
func clipFileName(outDir string, lineIndex int, characterName string) string {
	return filepath.Join(outDir, fmt.Sprintf("line_%02d_%s.mp3", lineIndex, strings.ToLower(characterName)))
}
