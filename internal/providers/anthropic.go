package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Anthropic struct {
	Key, Model string
	Limiter    *rate.Limiter
}

func (c *Anthropic) Name() SourceName { return SourceClaude }

func (c *Anthropic) Query(ctx context.Context, prompt string) (RawAnswer, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return RawAnswer{}, err
		}
	}

	body := map[string]any{
		"model":      c.Model,
		"max_tokens": 1024,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(b))
	req.Header.Set("x-api-key", c.Key)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return RawAnswer{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return RawAnswer{}, errors.New("anthropic http " + resp.Status)
	}
	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	_ = json.Unmarshal(raw, &out)
	if len(out.Content) == 0 {
		return RawAnswer{}, errors.New("anthropic empty content")
	}

	return RawAnswer{
		Provider:  c.Name(),
		Model:     c.Model,
		Text:      out.Content[0].Text,
		LatencyMs: int(time.Since(t0) / time.Millisecond),
	}, nil
}
