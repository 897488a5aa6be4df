package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/verdict"
)

func factualAnswer(provider string, d verdict.Decision, conf float64) verdict.Answer {
	return verdict.Answer{Provider: provider, Model: "m", Decision: d, Confidence: conf, Reasoning: "r"}
}

func disputeAnswer(provider string, p verdict.Party, conf float64) verdict.Answer {
	return verdict.Answer{Provider: provider, Model: "m", WinningParty: &p, Confidence: conf, Reasoning: "r"}
}

func TestAggregateFactualMajority(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateFactual("is water wet", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionYes, 0.9),
		factualAnswer("anthropic", verdict.DecisionYes, 0.85),
		factualAnswer("gemini", verdict.DecisionNo, 0.95),
	})

	assert.Equal(t, verdict.DecisionYes, res.FinalDecision)
	assert.InDelta(t, (0.9+0.85)/3.0, res.FinalConfidence, 1e-9)
	assert.InDelta(t, 3.0, res.TotalWeight, 1e-9)
	assert.Len(t, res.Responses, 3)
	assert.False(t, res.Timestamp.IsZero())
}

func TestAggregateFactualWeightsShiftOutcome(t *testing.T) {
	s := NewScorer(map[string]float64{"gemini": 3.0})
	res := s.AggregateFactual("q", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionYes, 0.9),
		factualAnswer("anthropic", verdict.DecisionYes, 0.85),
		factualAnswer("gemini", verdict.DecisionNo, 0.95),
	})

	assert.Equal(t, verdict.DecisionNo, res.FinalDecision)
	assert.InDelta(t, 5.0, res.TotalWeight, 1e-9)
}

func TestAggregateFactualTieReturnsUncertainAtTiedScore(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateFactual("q", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionYes, 0.8),
		factualAnswer("anthropic", verdict.DecisionNo, 0.8),
	})

	assert.Equal(t, verdict.DecisionUncertain, res.FinalDecision)
	assert.InDelta(t, 0.4, res.FinalConfidence, 1e-9)
}

func TestAggregateFactualJustOutsideEpsilonPicksWinner(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateFactual("q", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionYes, 0.9),
		factualAnswer("anthropic", verdict.DecisionNo, 0.85),
	})

	assert.Equal(t, verdict.DecisionYes, res.FinalDecision)
	assert.InDelta(t, 0.45, res.FinalConfidence, 1e-9)
}

func TestAggregateFactualZeroConfidenceAnswersYieldNeutral(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateFactual("q", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionYes, 0.0),
		factualAnswer("anthropic", verdict.DecisionNo, 0.0),
	})

	assert.Equal(t, verdict.DecisionUncertain, res.FinalDecision)
	assert.Equal(t, 0.0, res.FinalConfidence)
	assert.InDelta(t, 2.0, res.TotalWeight, 1e-9)
}

func TestAggregateFactualAllFailed(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateFactual("q", []verdict.Answer{
		verdict.FailedAnswer("openai", "m", "timeout"),
		verdict.FailedAnswer("anthropic", "m", "rate limited"),
	})

	assert.Equal(t, verdict.DecisionUncertain, res.FinalDecision)
	assert.Equal(t, 0.0, res.FinalConfidence)
	assert.Equal(t, 0.0, res.TotalWeight)
	assert.Contains(t, res.Explanation, "All LLM providers failed")
	assert.Len(t, res.Responses, 2)
}

func TestAggregateFactualFailedAnswersCarryNoWeight(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateFactual("q", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionNo, 0.6),
		verdict.FailedAnswer("anthropic", "m", "boom"),
	})

	assert.Equal(t, verdict.DecisionNo, res.FinalDecision)
	assert.InDelta(t, 0.6, res.FinalConfidence, 1e-9)
	assert.InDelta(t, 1.0, res.TotalWeight, 1e-9)
}

func TestExplanationListsEveryProviderIncludingFailed(t *testing.T) {
	s := NewScorer(map[string]float64{"openai": 1.5})
	res := s.AggregateFactual("q", []verdict.Answer{
		factualAnswer("openai", verdict.DecisionYes, 0.9),
		verdict.FailedAnswer("anthropic", "m", "connection refused"),
	})

	assert.Contains(t, res.Explanation, "**Final Decision: YES**")
	assert.Contains(t, res.Explanation, "**OPENAI** (weight: 1.5): YES (confidence: 0.90)")
	assert.Contains(t, res.Explanation, "**ANTHROPIC** (weight: 1.0)")
	assert.Contains(t, res.Explanation, "[failed: connection refused]")
	assert.Contains(t, res.Explanation, "**Total Weight Used:** 1.50")
}

func TestAggregateDisputeMajority(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateDispute("who breached", []verdict.Answer{
		disputeAnswer("openai", verdict.PartyA, 0.8),
		disputeAnswer("anthropic", verdict.PartyA, 0.7),
		disputeAnswer("gemini", verdict.PartyB, 0.9),
	})

	assert.Equal(t, verdict.PartyA, res.FinalDecision)
	assert.InDelta(t, 1.5/3.0, res.FinalConfidence, 1e-9)
	assert.Contains(t, res.Explanation, "**Final Decision: A**")
}

func TestAggregateDisputeTieReturnsDraw(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateDispute("q", []verdict.Answer{
		disputeAnswer("openai", verdict.PartyA, 0.75),
		disputeAnswer("anthropic", verdict.PartyB, 0.75),
	})

	assert.Equal(t, verdict.PartyDraw, res.FinalDecision)
	assert.InDelta(t, 0.375, res.FinalConfidence, 1e-9)
}

func TestAggregateDisputeAllFailed(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateDispute("q", []verdict.Answer{
		verdict.FailedDisputeAnswer("openai", "m", "x"),
		verdict.FailedDisputeAnswer("anthropic", "m", "y"),
	})

	assert.Equal(t, verdict.PartyDraw, res.FinalDecision)
	assert.Equal(t, 0.0, res.FinalConfidence)
	assert.Contains(t, res.Explanation, "All LLM providers failed")
}

func TestAggregateMediaMajority(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateMedia("https://x.com/u/status/1", []verdict.MediaAnswer{
		{Provider: "grok", Verdict: verdict.VerdictMisleading, Confidence: 0.9,
			IdentifiedClaims: []string{"claim one"}, RedFlags: []string{"no source"}},
		{Provider: "openai", Verdict: verdict.VerdictMisleading, Confidence: 0.8,
			IdentifiedClaims: []string{"claim one", "claim two"}, RedFlags: []string{}},
		{Provider: "gemini", Verdict: verdict.VerdictCredible, Confidence: 0.7,
			IdentifiedClaims: []string{}, RedFlags: []string{}},
	})

	require.Equal(t, verdict.VerdictMisleading, res.FinalVerdict)
	assert.InDelta(t, 1.7/3.0, res.FinalConfidence, 1e-9)
	assert.Equal(t, "https://x.com/u/status/1", res.Post.URL)
	assert.Contains(t, res.AnalysisSummary, "**Identified Claims:**")
	assert.Contains(t, res.AnalysisSummary, "- claim one")
	assert.Contains(t, res.AnalysisSummary, "- claim two")
	assert.Contains(t, res.AnalysisSummary, "- no source")
}

func TestAggregateMediaDedupesClaimsPreservingOrder(t *testing.T) {
	answers := []verdict.MediaAnswer{
		{IdentifiedClaims: []string{"a", "b"}},
		{IdentifiedClaims: []string{"b", "c", "d", "e", "f", "g"}},
	}
	got := collectDistinct(answers, func(a verdict.MediaAnswer) []string { return a.IdentifiedClaims })
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestAggregateMediaAllFailed(t *testing.T) {
	s := NewScorer(nil)
	res := s.AggregateMedia("https://x.com/u/status/1", []verdict.MediaAnswer{
		verdict.FailedMediaAnswer("grok", "m", "timeout"),
	})

	assert.Equal(t, verdict.VerdictQuestionable, res.FinalVerdict)
	assert.Equal(t, 0.0, res.FinalConfidence)
	assert.Contains(t, res.AnalysisSummary, "All LLM providers failed")
}
