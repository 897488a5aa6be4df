package verdict

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Parsing strategy for all modes:
// fenced JSON anywhere in the text -> bare JSON -> line-oriented
// DECISION:/CONFIDENCE:/REASONING: scan -> raw text as rationale.
// Parsing never fails; unusable input degrades to the mode's neutral
// class with confidence 0.5.

// ParseFactual normalizes raw model text into a yes/no/uncertain answer.
func ParseFactual(raw string) Answer {
	ans := Answer{
		Decision:   DecisionUncertain,
		Confidence: 0.5,
		Raw:        strings.TrimSpace(raw),
	}
	text := ans.Raw
	if text == "" {
		return ans
	}

	if obj, ok := tryJSONObject(text); ok {
		ans.Decision = parseDecision(obj["decision"])
		ans.Confidence = parseConfidence(obj["confidence"])
		ans.Reasoning = cleanText(obj["reasoning"])
		return ans
	}

	dec, conf, reason := scanKeywords(text)
	ans.Decision = dec
	ans.Confidence = conf
	if reason == "" {
		// Total parse failure: the raw text is the best rationale we have.
		reason = text
	}
	ans.Reasoning = reason
	return ans
}

// ParseDispute normalizes raw model text into an A/B/draw answer.
// Only the winning_party field selects a side; legacy yes/no shapes are
// not mapped onto parties, so one round can never mix both vote formats.
// contract_validity and injection_detected are folded into the rationale
// as bracketed annotations.
func ParseDispute(raw string) Answer {
	draw := PartyDraw
	ans := Answer{
		Decision:     DecisionUncertain,
		WinningParty: &draw,
		Confidence:   0.5,
		Raw:          strings.TrimSpace(raw),
	}
	text := ans.Raw
	if text == "" {
		return ans
	}

	obj, ok := tryJSONObject(text)
	if !ok {
		ans.Reasoning = text
		return ans
	}

	party := parseParty(obj["winning_party"])
	ans.WinningParty = &party
	ans.Confidence = parseConfidence(obj["confidence"])
	reasoning := cleanText(obj["reasoning"])

	if v := cleanText(obj["contract_validity"]); v != "" {
		reasoning = appendAnnotation(reasoning, "contract validity: "+strings.ToLower(v))
	}
	if b, isBool := obj["injection_detected"].(bool); isBool && b {
		reasoning = appendAnnotation(reasoning, "prompt injection detected")
	}
	ans.Reasoning = reasoning
	return ans
}

// ParseMedia normalizes raw model text into a credibility analysis.
func ParseMedia(raw string) MediaAnswer {
	ans := MediaAnswer{
		Verdict:          VerdictQuestionable,
		Confidence:       0.5,
		IdentifiedClaims: []string{},
		RedFlags:         []string{},
		Raw:              strings.TrimSpace(raw),
	}
	text := ans.Raw
	if text == "" {
		return ans
	}

	obj, ok := tryJSONObject(text)
	if !ok {
		ans.Analysis = text
		return ans
	}

	ans.Verdict = parseVerdict(obj["verdict"])
	ans.Confidence = parseConfidence(obj["confidence"])
	ans.Analysis = cleanText(obj["analysis"])
	ans.IdentifiedClaims = parseStringList(obj["identified_claims"])
	ans.RedFlags = parseStringList(obj["red_flags"])
	return ans
}

// tryJSONObject extracts the first fenced block if present and unmarshals
// the candidate payload into a generic object.
func tryJSONObject(text string) (map[string]any, bool) {
	payload := text
	if block, found := extractFenced(text); found {
		payload = block
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// extractFenced returns the content of the first ``` fence in s. The fence
// may start anywhere, an optional language tag after the opening fence is
// stripped, and a missing closing fence yields everything to end-of-string.
func extractFenced(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]

	// Language tag: first line after the fence, if it isn't payload.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{}[]") {
			rest = rest[nl+1:]
		}
	}

	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

// scanKeywords is the legacy line-oriented fallback. Once REASONING: is
// seen, every remaining line is absorbed verbatim.
func scanKeywords(text string) (Decision, float64, string) {
	decision := DecisionUncertain
	confidence := 0.5
	reasoning := ""

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(upper, "DECISION:"):
			value := strings.ToLower(afterColon(line))
			if strings.Contains(value, "yes") {
				decision = DecisionYes
			} else if strings.Contains(value, "no") {
				decision = DecisionNo
			} else {
				decision = DecisionUncertain
			}
		case strings.Contains(upper, "CONFIDENCE:"):
			if f, err := strconv.ParseFloat(afterColon(line), 64); err == nil {
				confidence = clamp(f)
			} else {
				confidence = 0.5
			}
		case strings.Contains(upper, "REASONING:"):
			reasoning = afterColon(line)
			if i+1 < len(lines) {
				reasoning += "\n" + strings.Join(lines[i+1:], "\n")
			}
			return decision, confidence, reasoning
		}
	}
	return decision, confidence, reasoning
}

func afterColon(line string) string {
	if _, rest, found := strings.Cut(line, ":"); found {
		return strings.TrimSpace(rest)
	}
	return ""
}

func parseDecision(v any) Decision {
	s, ok := v.(string)
	if !ok {
		return DecisionUncertain
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return DecisionYes
	case "no":
		return DecisionNo
	case "uncertain":
		return DecisionUncertain
	}
	return DecisionUncertain
}

func parseParty(v any) Party {
	s, ok := v.(string)
	if !ok {
		return PartyDraw
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return PartyA
	case "b":
		return PartyB
	case "draw":
		return PartyDraw
	}
	return PartyDraw
}

func parseVerdict(v any) MediaVerdict {
	s, ok := v.(string)
	if !ok {
		return VerdictQuestionable
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credible":
		return VerdictCredible
	case "questionable":
		return VerdictQuestionable
	case "misleading":
		return VerdictMisleading
	case "opinion":
		return VerdictOpinion
	}
	return VerdictQuestionable
}

// parseConfidence accepts JSON numbers and numeric strings, clamped to
// [0,1]. Anything else falls back to 0.5.
func parseConfidence(v any) float64 {
	switch t := v.(type) {
	case float64:
		return clamp(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return clamp(f)
		}
	}
	return 0.5
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// cleanText converts null/absent/whitespace-only values to "".
func cleanText(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func parseStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, isStr := it.(string); isStr && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func appendAnnotation(reasoning, note string) string {
	if reasoning == "" {
		return fmt.Sprintf("[%s]", note)
	}
	return fmt.Sprintf("%s\n[%s]", reasoning, note)
}
