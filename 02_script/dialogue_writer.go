package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

const groqURL = "https://api.groq.com/openai/v1/chat/completions"

// Writer generates the two-character dialogue for a topic through the Groq
// chat completions API.
type Writer struct {
	cfg    *config.Config
	apiKey string
	client *http.Client
}

// NewWriter reads the API key from GROQ_API_KEY.
func NewWriter(cfg *config.Config) *Writer {
	return &Writer{
		cfg:    cfg,
		apiKey: os.Getenv("GROQ_API_KEY"),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type rawLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Image   string `json:"image"`
}

type rawDialogue struct {
	Lines []rawLine `json:"lines"`
}

// Write asks the model for a short back-and-forth about the topic and
// normalizes the result into ordered dialogue lines. A malformed reply is
// retried before giving up.
func (w *Writer) Write(ctx context.Context, topic string) ([]types.DialogueLine, error) {
	if w.apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}

	maxRetries := 3
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("[script] ⚠️ retry %d/%d", attempt, maxRetries)
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := w.requestCompletion(ctx, topic)
		if err != nil {
			lastErr = err
			continue
		}
		lines, err := w.parseDialogue(raw)
		if err != nil {
			lastErr = fmt.Errorf("parse model reply: %w", err)
			continue
		}
		log.Printf("[script] %d dialogue lines for %q", len(lines), topic)
		return lines, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (w *Writer) requestCompletion(ctx context.Context, topic string) (string, error) {
	a, errA := w.cfg.Character(types.SpeakerA)
	b, errB := w.cfg.Character(types.SpeakerB)
	if errA != nil || errB != nil {
		return "", fmt.Errorf("both conversation characters must be configured")
	}

	system := fmt.Sprintf(`You write punchy dialogues between two cartoon characters, %s and %s, for short vertical videos.
Rules:
- Speakers strictly alternate, %s goes first.
- At most %d lines, each under 20 words, casual and funny but factually grounded.
- When a line mentions something concretely visual, add an "image" slug for it (like "eiffel-tower"). Most lines have none.
Reply ONLY with JSON: {"lines":[{"speaker":"%s","text":"...","image":""}]}`,
		a.Name, b.Name, a.Name, w.cfg.Script.MaxLines, a.Name)

	body, err := json.Marshal(chatRequest{
		Model: w.cfg.Script.GroqModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: fmt.Sprintf("Topic: %s", topic)},
		},
		Temperature: w.cfg.Script.Temperature,
		MaxTokens:   w.cfg.Script.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", groqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, msg)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseDialogue validates and normalizes the model's reply. Speaker names
// are mapped onto the two configured characters; if any name is
// unrecognizable the whole conversation falls back to strict alternation.
func (w *Writer) parseDialogue(raw string) ([]types.DialogueLine, error) {
	var dialogue rawDialogue
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &dialogue); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	lines := make([]types.DialogueLine, 0, len(dialogue.Lines))
	unresolved := false
	for _, rl := range dialogue.Lines {
		text := strings.TrimSpace(rl.Text)
		if text == "" {
			continue
		}
		speaker := w.normalizeSpeaker(rl.Speaker)
		if speaker == "" {
			unresolved = true
		}
		lines = append(lines, types.DialogueLine{
			Speaker:          speaker,
			Text:             text,
			ImagePlaceholder: strings.TrimSpace(rl.Image),
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no usable dialogue lines")
	}
	if len(lines) > w.cfg.Script.MaxLines {
		lines = lines[:w.cfg.Script.MaxLines]
	}

	if unresolved {
		log.Printf("[script] unrecognized speaker names, falling back to alternation")
		for i := range lines {
			if i%2 == 0 {
				lines[i].Speaker = types.SpeakerA
			} else {
				lines[i].Speaker = types.SpeakerB
			}
		}
	}
	for i := range lines {
		lines[i].Index = i
	}
	return lines, nil
}

// normalizeSpeaker maps a model-provided name onto a canonical speaker ID,
// or "" when it matches neither character.
func (w *Writer) normalizeSpeaker(name string) string {
	name = strings.TrimSpace(name)
	for _, id := range []string{types.SpeakerA, types.SpeakerB} {
		if strings.EqualFold(name, id) {
			return id
		}
		if ch, err := w.cfg.Character(id); err == nil && strings.EqualFold(name, ch.Name) {
			return id
		}
	}
	return ""
}

// cleanJSON strips markdown fences and surrounding prose from a model reply,
// keeping the outermost JSON object.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
