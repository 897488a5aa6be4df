package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFactualFencedJSON(t *testing.T) {
	raw := "Here is my assessment:\n```json\n{\"decision\": \"yes\", \"confidence\": 0.92, \"reasoning\": \"well documented\"}\n```\nHope that helps."
	ans := ParseFactual(raw)

	assert.Equal(t, DecisionYes, ans.Decision)
	assert.InDelta(t, 0.92, ans.Confidence, 1e-9)
	assert.Equal(t, "well documented", ans.Reasoning)
}

func TestParseFactualBareJSON(t *testing.T) {
	ans := ParseFactual(`{"decision": "NO", "confidence": 0.3, "reasoning": "contradicted"}`)

	assert.Equal(t, DecisionNo, ans.Decision)
	assert.InDelta(t, 0.3, ans.Confidence, 1e-9)
}

func TestParseFactualFenceWithoutClosing(t *testing.T) {
	raw := "```json\n{\"decision\": \"yes\", \"confidence\": 0.99, \"reasoning\": \"cut off\"}"
	ans := ParseFactual(raw)

	assert.Equal(t, DecisionYes, ans.Decision)
	assert.InDelta(t, 0.99, ans.Confidence, 1e-9)
}

func TestParseFactualFirstOfMultipleFences(t *testing.T) {
	raw := "```json\n{\"decision\": \"no\", \"confidence\": 0.6}\n```\n```json\n{\"decision\": \"yes\", \"confidence\": 0.9}\n```"
	ans := ParseFactual(raw)

	assert.Equal(t, DecisionNo, ans.Decision)
}

func TestParseFactualUnknownDecisionMapsToUncertain(t *testing.T) {
	ans := ParseFactual(`{"decision": "maybe", "confidence": 0.7}`)

	assert.Equal(t, DecisionUncertain, ans.Decision)
	assert.InDelta(t, 0.7, ans.Confidence, 1e-9)
}

func TestParseFactualConfidenceHandling(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"above one clamps", `{"decision":"yes","confidence":1.7}`, 1.0},
		{"negative clamps", `{"decision":"yes","confidence":-0.2}`, 0.0},
		{"numeric string", `{"decision":"yes","confidence":"0.85"}`, 0.85},
		{"non numeric", `{"decision":"yes","confidence":"high"}`, 0.5},
		{"missing", `{"decision":"yes"}`, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ParseFactual(tc.raw).Confidence, 1e-9)
		})
	}
}

func TestParseFactualMissingReasoningStaysEmpty(t *testing.T) {
	ans := ParseFactual(`{"decision": "yes", "confidence": 0.8}`)
	assert.Equal(t, "", ans.Reasoning)

	ans = ParseFactual(`{"decision": "yes", "confidence": 0.8, "reasoning": null}`)
	assert.Equal(t, "", ans.Reasoning)

	ans = ParseFactual(`{"decision": "yes", "confidence": 0.8, "reasoning": "   "}`)
	assert.Equal(t, "", ans.Reasoning)
}

func TestParseFactualLegacyKeywordFormat(t *testing.T) {
	raw := "DECISION: Yes\nConfidence: 0.75\nREASONING: first line\nsecond line\nthird line"
	ans := ParseFactual(raw)

	assert.Equal(t, DecisionYes, ans.Decision)
	assert.InDelta(t, 0.75, ans.Confidence, 1e-9)
	assert.Equal(t, "first line\nsecond line\nthird line", ans.Reasoning)
}

func TestParseFactualLegacyDecisionSubstrings(t *testing.T) {
	assert.Equal(t, DecisionYes, ParseFactual("decision: yes, definitely").Decision)
	assert.Equal(t, DecisionNo, ParseFactual("Decision: no way").Decision)
	assert.Equal(t, DecisionUncertain, ParseFactual("Decision: unclear").Decision)
}

func TestParseFactualFreeTextBecomesRationale(t *testing.T) {
	raw := "I cannot answer this question with certainty."
	ans := ParseFactual(raw)

	assert.Equal(t, DecisionUncertain, ans.Decision)
	assert.InDelta(t, 0.5, ans.Confidence, 1e-9)
	assert.Equal(t, raw, ans.Reasoning)
}

func TestParseFactualEmptyInput(t *testing.T) {
	ans := ParseFactual("   \n  ")

	assert.Equal(t, DecisionUncertain, ans.Decision)
	assert.InDelta(t, 0.5, ans.Confidence, 1e-9)
	assert.Equal(t, "", ans.Reasoning)
}

func TestParseFactualIdempotent(t *testing.T) {
	raw := "```\n{\"decision\": \"yes\", \"confidence\": 0.9, \"reasoning\": \"r\"}\n```"
	first := ParseFactual(raw)
	second := ParseFactual(raw)
	assert.Equal(t, first, second)
}

func TestParseDisputeWinningParty(t *testing.T) {
	ans := ParseDispute(`{"winning_party": "b", "confidence": 0.88, "reasoning": "late delivery"}`)

	require.NotNil(t, ans.WinningParty)
	assert.Equal(t, PartyB, *ans.WinningParty)
	assert.InDelta(t, 0.88, ans.Confidence, 1e-9)
	assert.Equal(t, "late delivery", ans.Reasoning)
}

func TestParseDisputeLegacyYesNoNotMapped(t *testing.T) {
	ans := ParseDispute(`{"decision": "yes", "confidence": 0.9, "reasoning": "r"}`)

	require.NotNil(t, ans.WinningParty)
	assert.Equal(t, PartyDraw, *ans.WinningParty)
}

func TestParseDisputeAnnotations(t *testing.T) {
	ans := ParseDispute(`{"winning_party": "A", "confidence": 0.8, "reasoning": "base", "contract_validity": "Valid", "injection_detected": true}`)

	assert.Equal(t, "base\n[contract validity: valid]\n[prompt injection detected]", ans.Reasoning)
}

func TestParseDisputeInjectionFalseNotAnnotated(t *testing.T) {
	ans := ParseDispute(`{"winning_party": "A", "confidence": 0.8, "reasoning": "base", "injection_detected": false}`)

	assert.Equal(t, "base", ans.Reasoning)
}

func TestParseDisputeUnparseableDefaultsToDraw(t *testing.T) {
	ans := ParseDispute("the parties should settle amicably")

	require.NotNil(t, ans.WinningParty)
	assert.Equal(t, PartyDraw, *ans.WinningParty)
	assert.InDelta(t, 0.5, ans.Confidence, 1e-9)
	assert.Equal(t, "the parties should settle amicably", ans.Reasoning)
}

func TestParseMediaFull(t *testing.T) {
	raw := "```json\n{\"verdict\": \"misleading\", \"confidence\": 0.82, \"analysis\": \"cherry picked\", \"identified_claims\": [\"claim a\", \" \", \"claim b\"], \"red_flags\": [\"no source\"]}\n```"
	ans := ParseMedia(raw)

	assert.Equal(t, VerdictMisleading, ans.Verdict)
	assert.InDelta(t, 0.82, ans.Confidence, 1e-9)
	assert.Equal(t, "cherry picked", ans.Analysis)
	assert.Equal(t, []string{"claim a", "claim b"}, ans.IdentifiedClaims)
	assert.Equal(t, []string{"no source"}, ans.RedFlags)
}

func TestParseMediaNonListClaims(t *testing.T) {
	ans := ParseMedia(`{"verdict": "opinion", "confidence": 0.6, "identified_claims": "just one", "red_flags": null}`)

	assert.Equal(t, VerdictOpinion, ans.Verdict)
	assert.Equal(t, []string{}, ans.IdentifiedClaims)
	assert.Equal(t, []string{}, ans.RedFlags)
}

func TestParseMediaUnknownVerdict(t *testing.T) {
	ans := ParseMedia(`{"verdict": "fake news", "confidence": 0.9}`)
	assert.Equal(t, VerdictQuestionable, ans.Verdict)
}

func TestParseMediaFreeText(t *testing.T) {
	ans := ParseMedia("this post looks fine to me")

	assert.Equal(t, VerdictQuestionable, ans.Verdict)
	assert.InDelta(t, 0.5, ans.Confidence, 1e-9)
	assert.Equal(t, "this post looks fine to me", ans.Analysis)
	assert.Equal(t, []string{}, ans.IdentifiedClaims)
}
