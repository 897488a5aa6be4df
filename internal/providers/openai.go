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

type OpenAI struct {
	Key, Model string
	Limiter    *rate.Limiter
}

func (c *OpenAI) Name() SourceName { return SourceOpenAI }

func (c *OpenAI) Query(ctx context.Context, prompt string) (RawAnswer, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return RawAnswer{}, err
		}
	}

	body := map[string]any{
		"model":             c.Model,
		"input":             prompt,
		"temperature":       0.0,
		"max_output_tokens": 1024,
	}

	b, _ := json.Marshal(body)
	log := telemetry.L().With().Str("provider", string(c.Name())).Int("body_len", len(b)).Logger()
	// redacted log API key
	b = bytes.ReplaceAll(b, []byte(c.Key), []byte("REDACTED"))

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/responses", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+c.Key)
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("openai_request_failed")
		return RawAnswer{}, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	log.Debug().Int("body_len", len(raw)).Msg("openai_response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("status", resp.Status).
			RawJSON("body", raw).
			Msg("openai_http_error")
		return RawAnswer{}, errors.New("openai http " + resp.Status)
	}

	// parse: responses API: fallback to chat completions
	text := extractOpenAIText(raw)
	if strings.TrimSpace(text) == "" {
		return RawAnswer{}, errors.New("openai: empty text")
	}

	return RawAnswer{
		Provider:  c.Name(),
		Model:     c.Model,
		Text:      text,
		LatencyMs: int(time.Since(t0) / time.Millisecond),
	}, nil
}

// get text from Responses API or fallback Chat Completions.
func extractOpenAIText(raw []byte) string {
	var r1 struct {
		OutputText string `json:"output_text"`
	}
	if json.Unmarshal(raw, &r1) == nil && strings.TrimSpace(r1.OutputText) != "" {
		return r1.OutputText
	}

	// responses API: output[].content[].text
	var r2 struct {
		Output []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if json.Unmarshal(raw, &r2) == nil && len(r2.Output) > 0 {
		for _, c := range r2.Output[0].Content {
			if strings.TrimSpace(c.Text) != "" {
				return c.Text
			}
		}
	}

	// fallback chat completions format: choices[0].message.content
	var r3 struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if json.Unmarshal(raw, &r3) == nil && len(r3.Choices) > 0 {
		return r3.Choices[0].Message.Content
	}

	return ""
}
