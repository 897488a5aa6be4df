package providers

import (
	"context"
)

// RawAnswer is the opaque text a provider returned for one round, before
// normalization. Text is handed to internal/verdict untouched.
type RawAnswer struct {
	Provider  SourceName `json:"provider"`
	Model     string     `json:"model"`
	Text      string     `json:"text"`
	LatencyMs int        `json:"latency_ms,omitempty"`
}

type SourceName string

const (
	SourceOpenAI SourceName = "OPENAI"
	SourceClaude SourceName = "CLAUDE"
	SourceGemini SourceName = "GEMINI"
	SourceGrok   SourceName = "GROK"
	SourceMock   SourceName = "MOCK"
)

type Client interface {
	Name() SourceName
	Query(ctx context.Context, prompt string) (RawAnswer, error)
}

// MediaAnalyzer marks clients that can fetch and judge a social post by
// URL. Clients without it are skipped in media rounds.
type MediaAnalyzer interface {
	AnalyzeMedia(ctx context.Context, postURL string) (RawAnswer, error)
}
