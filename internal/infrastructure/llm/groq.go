package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"kvibe/internal/config"
	"kvibe/internal/domain"
	"kvibe/internal/ports"
)

const (
	summaryMaxRunes = 300
	keywordCount    = 3
	vibeScoreMax    = 100
)

// Client implements ports.Annotator against OpenAI-compatible chat-completions
// APIs (Groq in production).
type Client struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Annotator = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Annotate sends one raw article through the model and decodes the structured
// annotation. Transport and API errors are returned; a malformed model answer
// is not an error and degrades to typed defaults.
func (c *Client) Annotate(ctx context.Context, article domain.RawArticle) (domain.Annotation, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Annotation{}, fmt.Errorf("llm client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": buildPrompt(article)},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.2,
	})
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Annotation{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Annotation{}, fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return domain.Annotation{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Annotation{}, fmt.Errorf("completion has no choices")
	}

	return decodeAnnotation(completion.Choices[0].Message.Content), nil
}

func buildPrompt(article domain.RawArticle) string {
	var b strings.Builder
	b.WriteString("Analyze this K-entertainment news item. Respond with ONE JSON object using exactly these keys:\n")
	b.WriteString(`"artist": the main artist, group or subject;` + "\n")
	b.WriteString(`"summary": one English sentence, engaging but factual, under 300 characters;` + "\n")
	fmt.Fprintf(&b, `"keywords": an array of exactly %d short tags;`+"\n", keywordCount)
	b.WriteString(`"vibe": {"excitement": n, "shock": n, "sadness": n} with non-negative integers summing to 100.` + "\n\n")
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Snippet: %s\n", article.Snippet)
	fmt.Fprintf(&b, "Source: %s\n", article.SourceName)
	return b.String()
}

// decodeAnnotation parses the model's raw text defensively. Missing or
// malformed fields become safe defaults; a single bad response must never halt
// the batch.
func decodeAnnotation(raw string) domain.Annotation {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var loose struct {
		Artist   string   `json:"artist"`
		Summary  string   `json:"summary"`
		Keywords []string `json:"keywords"`
		Vibe     struct {
			Excitement float64 `json:"excitement"`
			Shock      float64 `json:"shock"`
			Sadness    float64 `json:"sadness"`
		} `json:"vibe"`
	}

	annotation := domain.Annotation{Keywords: []string{}}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return annotation
	}

	annotation.Artist = strings.TrimSpace(loose.Artist)
	annotation.Summary = truncateRunes(strings.TrimSpace(loose.Summary), summaryMaxRunes)

	for _, keyword := range loose.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		annotation.Keywords = append(annotation.Keywords, keyword)
		if len(annotation.Keywords) == keywordCount {
			break
		}
	}

	annotation.Vibe = domain.Vibe{
		Excitement: clampScore(loose.Vibe.Excitement),
		Shock:      clampScore(loose.Vibe.Shock),
		Sadness:    clampScore(loose.Vibe.Sadness),
	}

	return annotation
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// clampScore pins a model score into [0, vibeScoreMax]. The bounds check must
// happen in float space: converting an oversized float64 to int is undefined
// and comes out negative on common platforms.
func clampScore(v float64) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > vibeScoreMax {
		return vibeScoreMax
	}
	return int(math.Round(v))
}
