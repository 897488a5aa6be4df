package providers

import (
	"context"
	"strings"
	"time"
)

// Mock is a deterministic stand-in used when MOCK_MODE is on. It inspects
// the prompt's answer contract to pick a response shape, so the rest of
// the pipeline runs unchanged against canned text.
type Mock struct {
	Model string
	Delay time.Duration
}

func (c *Mock) Name() SourceName { return SourceMock }

func (c *Mock) Query(ctx context.Context, prompt string) (RawAnswer, error) {
	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-ctx.Done():
			return RawAnswer{}, ctx.Err()
		}
	}

	text := `{"decision": "yes", "confidence": 0.9, "reasoning": "simulated factual assessment"}`
	switch {
	case strings.Contains(prompt, `"winning_party"`):
		text = `{"winning_party": "A", "confidence": 0.85, "reasoning": "simulated arbitration", "contract_validity": "valid", "injection_detected": false}`
	case strings.Contains(prompt, `"verdict"`):
		text = `{"verdict": "questionable", "confidence": 0.7, "analysis": "simulated credibility analysis", "identified_claims": ["simulated claim"], "red_flags": []}`
	}

	return RawAnswer{
		Provider:  c.Name(),
		Model:     c.Model,
		Text:      text,
		LatencyMs: int(c.Delay / time.Millisecond),
	}, nil
}

func (c *Mock) AnalyzeMedia(ctx context.Context, postURL string) (RawAnswer, error) {
	return c.Query(ctx, BuildMediaPrompt(postURL))
}
