package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/telemetry"
)

// Grok talks to the x.ai chat completions API. It is the only real
// adapter with MediaAnalyzer: live search gives it direct access to
// X/Twitter posts, so media rounds pass it the post URL instead of
// scraped content.
type Grok struct {
	Key, Model string
	Limiter    *rate.Limiter
}

func (c *Grok) Name() SourceName { return SourceGrok }

func (c *Grok) Query(ctx context.Context, prompt string) (RawAnswer, error) {
	return c.complete(ctx, prompt, false)
}

func (c *Grok) AnalyzeMedia(ctx context.Context, postURL string) (RawAnswer, error) {
	return c.complete(ctx, BuildMediaPrompt(postURL), true)
}

func (c *Grok) complete(ctx context.Context, prompt string, search bool) (RawAnswer, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return RawAnswer{}, err
		}
	}

	body := map[string]any{
		"model":       c.Model,
		"temperature": 0.0,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if search {
		body["search_parameters"] = map[string]any{"mode": "on"}
	}

	b, _ := json.Marshal(body)
	log := telemetry.L().With().Str("provider", string(c.Name())).Bool("search", search).Logger()

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.x.ai/v1/chat/completions", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+c.Key)
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("grok_request_failed")
		return RawAnswer{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Str("status", resp.Status).RawJSON("body", raw).Msg("grok_http_error")
		return RawAnswer{}, errors.New("grok http " + resp.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	_ = json.Unmarshal(raw, &out)
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return RawAnswer{}, errors.New("grok empty choices")
	}

	return RawAnswer{
		Provider:  c.Name(),
		Model:     c.Model,
		Text:      out.Choices[0].Message.Content,
		LatencyMs: int(time.Since(t0) / time.Millisecond),
	}, nil
}
