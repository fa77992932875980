package topics

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"github.com/JeffreyLin1/peetleAI/config"
)

// Suggester finds discussion-worthy topics on Reddit and remembers which
// ones have already been turned into videos.
type Suggester struct {
	cfg    *config.Config
	client *reddit.Client
}

// NewSuggester builds a read-only Reddit client; no credentials needed.
func NewSuggester(cfg *config.Config) (*Suggester, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &Suggester{cfg: cfg, client: client}, nil
}

type candidate struct {
	title string
	rank  float64
}

// Suggest returns the highest-ranked unused topic across the configured
// subreddits and records it as used. A subreddit that fails to load is
// skipped; only a fully empty sweep is an error.
func (s *Suggester) Suggest(ctx context.Context) (string, error) {
	used, err := s.loadUsed()
	if err != nil {
		return "", fmt.Errorf("load used topics: %w", err)
	}

	var best *candidate
	for _, sub := range s.cfg.Topics.Subreddits {
		posts, _, err := s.client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: s.cfg.Topics.FetchLimit})
		if err != nil {
			log.Printf("[topics] ⚠️ r/%s unavailable: %v", sub, err)
			continue
		}
		for _, post := range posts {
			c, ok := s.evaluate(post, used)
			if !ok {
				continue
			}
			if best == nil || c.rank > best.rank {
				cc := c
				best = &cc
			}
		}
	}

	if best == nil {
		return "", fmt.Errorf("no usable topic in %v", s.cfg.Topics.Subreddits)
	}
	if err := s.markUsed(best.title); err != nil {
		log.Printf("[topics] ⚠️ could not record used topic: %v", err)
	}
	log.Printf("[topics] picked %q (rank %.0f)", best.title, best.rank)
	return best.title, nil
}

// evaluate filters one post against the topic rules and ranks survivors.
func (s *Suggester) evaluate(post *reddit.Post, used map[string]bool) (candidate, bool) {
	if post.Stickied || post.NSFW {
		return candidate{}, false
	}
	if post.Score < s.cfg.Topics.MinScore {
		return candidate{}, false
	}
	age := time.Duration(-1)
	if post.Created != nil {
		age = time.Since(post.Created.Time)
		if age > time.Duration(s.cfg.Topics.LookbackDays)*24*time.Hour {
			return candidate{}, false
		}
	}

	title := CleanTitle(post.Title)
	if title == "" || len(strings.Fields(title)) > s.cfg.Topics.MaxTitleWords {
		return candidate{}, false
	}
	if used[strings.ToLower(title)] {
		return candidate{}, false
	}
	return candidate{title: title, rank: rankScore(post.Score, post.NumberOfComments, age, title)}, true
}

// rankScore favors posts people argue about and questions the characters can
// riff on. Comments count double; same-day posts and question titles get
// flat bonuses.
func rankScore(score, comments int, age time.Duration, title string) float64 {
	rank := float64(score) + 2*float64(comments)
	if age >= 0 && age < 24*time.Hour {
		rank += 300
	}
	if isQuestion(title) {
		rank += 500
	}
	return rank
}

// isQuestion reports whether a cleaned title reads as a question.
func isQuestion(title string) bool {
	if strings.HasSuffix(title, "?") {
		return true
	}
	lower := strings.ToLower(title)
	return strings.HasPrefix(lower, "why ") || strings.HasPrefix(lower, "how ") ||
		strings.HasPrefix(lower, "what ")
}

func (s *Suggester) loadUsed() (map[string]bool, error) {
	used := make(map[string]bool)
	f, err := os.Open(s.cfg.Paths.UsedTopicsLog)
	if err != nil {
		if os.IsNotExist(err) {
			return used, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			used[strings.ToLower(line)] = true
		}
	}
	return used, scanner.Err()
}

func (s *Suggester) markUsed(title string) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.Paths.UsedTopicsLog), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.cfg.Paths.UsedTopicsLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, title)
	return err
}

// topicPrefixes are chopped off post titles; what remains reads like a topic
// rather than a Reddit headline.
var topicPrefixes = []string{"til that ", "til: ", "til ", "eli5: ", "eli5 ", "psa: ", "psa "}

// CleanTitle normalizes a post title into a plain topic: leading tags and
// subreddit prefixes removed, whitespace collapsed, first letter capitalized.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)

	// Leading "[Serious]"-style tags.
	for strings.HasPrefix(t, "[") {
		end := strings.Index(t, "]")
		if end < 0 {
			break
		}
		t = strings.TrimSpace(t[end+1:])
	}

	lower := strings.ToLower(t)
	for _, p := range topicPrefixes {
		if strings.HasPrefix(lower, p) {
			t = strings.TrimSpace(t[len(p):])
			break
		}
	}

	t = strings.Join(strings.Fields(t), " ")
	t = strings.Trim(t, `"`)
	if t == "" {
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}
