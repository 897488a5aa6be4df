package consensus

import (
	"fmt"
	"strings"
	"time"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/verdict"
)

// TieEpsilon is the margin below which two opposing two-class scores are
// treated as equal, forcing the neutral class instead of picking a side
// off floating-point noise.
const TieEpsilon = 0.01

// Scorer aggregates normalized provider answers with static per-provider
// weights. Unknown providers weigh 1.0. Aggregation is a pure function of
// the weight map and the ordered answer list.
type Scorer struct {
	weights map[string]float64
}

func NewScorer(weights map[string]float64) *Scorer {
	return &Scorer{weights: weights}
}

func (s *Scorer) weight(provider string) float64 {
	if w, ok := s.weights[provider]; ok {
		return w
	}
	return 1.0
}

// AggregateFactual combines yes/no/uncertain answers into one Result.
// Failed answers are listed in the output but contribute no weight.
func (s *Scorer) AggregateFactual(query string, answers []verdict.Answer) *verdict.Result {
	order := []verdict.Decision{verdict.DecisionYes, verdict.DecisionNo, verdict.DecisionUncertain}
	scores := map[verdict.Decision]float64{}

	totalWeight := 0.0
	for _, a := range answers {
		if a.Error != "" {
			continue
		}
		w := s.weight(a.Provider)
		totalWeight += w
		scores[a.Decision] += w * a.Confidence
	}

	final := verdict.DecisionUncertain
	confidence := 0.0
	if totalWeight > 0 {
		for d := range scores {
			scores[d] /= totalWeight
		}
		winner, winning := argmaxDecision(order, scores)

		yes, no := scores[verdict.DecisionYes], scores[verdict.DecisionNo]
		switch {
		case winning <= 0:
			final, confidence = verdict.DecisionUncertain, 0.0
		case abs(yes-no) < TieEpsilon && yes > 0 && no > 0:
			final, confidence = verdict.DecisionUncertain, winning
		default:
			final, confidence = winner, winning
		}
	}

	return &verdict.Result{
		Query:           query,
		FinalDecision:   final,
		FinalConfidence: confidence,
		Explanation:     s.explainFactual(answers, final, confidence, totalWeight),
		Responses:       answers,
		TotalWeight:     totalWeight,
		Timestamp:       time.Now().UTC(),
	}
}

// AggregateDispute combines A/B/draw answers into one DisputeResult.
func (s *Scorer) AggregateDispute(query string, answers []verdict.Answer) *verdict.DisputeResult {
	order := []verdict.Party{verdict.PartyA, verdict.PartyB, verdict.PartyDraw}
	scores := map[verdict.Party]float64{}

	totalWeight := 0.0
	for _, a := range answers {
		if a.Error != "" {
			continue
		}
		w := s.weight(a.Provider)
		totalWeight += w
		scores[partyOf(a)] += w * a.Confidence
	}

	final := verdict.PartyDraw
	confidence := 0.0
	if totalWeight > 0 {
		for p := range scores {
			scores[p] /= totalWeight
		}
		winner, winning := argmaxParty(order, scores)

		a, b := scores[verdict.PartyA], scores[verdict.PartyB]
		switch {
		case winning <= 0:
			final, confidence = verdict.PartyDraw, 0.0
		case abs(a-b) < TieEpsilon && a > 0 && b > 0:
			final, confidence = verdict.PartyDraw, winning
		default:
			final, confidence = winner, winning
		}
	}

	return &verdict.DisputeResult{
		Query:           query,
		FinalDecision:   final,
		FinalConfidence: confidence,
		Explanation:     s.explainDispute(answers, final, confidence, totalWeight),
		Responses:       answers,
		TotalWeight:     totalWeight,
		Timestamp:       time.Now().UTC(),
	}
}

// AggregateMedia combines credibility analyses into one MediaResult.
// The four-class mode has no tie rule; enumeration order breaks ties.
func (s *Scorer) AggregateMedia(postURL string, answers []verdict.MediaAnswer) *verdict.MediaResult {
	order := []verdict.MediaVerdict{
		verdict.VerdictCredible,
		verdict.VerdictQuestionable,
		verdict.VerdictMisleading,
		verdict.VerdictOpinion,
	}
	scores := map[verdict.MediaVerdict]float64{}

	totalWeight := 0.0
	for _, a := range answers {
		if a.Error != "" {
			continue
		}
		w := s.weight(a.Provider)
		totalWeight += w
		scores[a.Verdict] += w * a.Confidence
	}

	final := verdict.VerdictQuestionable
	confidence := 0.0
	if totalWeight > 0 {
		for v := range scores {
			scores[v] /= totalWeight
		}
		winner, winning := argmaxVerdict(order, scores)
		if winning > 0 {
			final, confidence = winner, winning
		}
	}

	return &verdict.MediaResult{
		Post:            verdict.PostData{URL: postURL},
		FinalVerdict:    final,
		FinalConfidence: confidence,
		AnalysisSummary: s.explainMedia(answers, final, confidence, totalWeight),
		Responses:       answers,
		TotalWeight:     totalWeight,
		Timestamp:       time.Now().UTC(),
	}
}

func partyOf(a verdict.Answer) verdict.Party {
	if a.WinningParty == nil {
		return verdict.PartyDraw
	}
	return *a.WinningParty
}

func argmaxDecision(order []verdict.Decision, scores map[verdict.Decision]float64) (verdict.Decision, float64) {
	winner, best := order[0], scores[order[0]]
	for _, d := range order[1:] {
		if scores[d] > best {
			winner, best = d, scores[d]
		}
	}
	return winner, best
}

func argmaxParty(order []verdict.Party, scores map[verdict.Party]float64) (verdict.Party, float64) {
	winner, best := order[0], scores[order[0]]
	for _, p := range order[1:] {
		if scores[p] > best {
			winner, best = p, scores[p]
		}
	}
	return winner, best
}

func argmaxVerdict(order []verdict.MediaVerdict, scores map[verdict.MediaVerdict]float64) (verdict.MediaVerdict, float64) {
	winner, best := order[0], scores[order[0]]
	for _, v := range order[1:] {
		if scores[v] > best {
			winner, best = v, scores[v]
		}
	}
	return winner, best
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func (s *Scorer) explainFactual(answers []verdict.Answer, final verdict.Decision, confidence, totalWeight float64) string {
	valid := validAnswers(answers)
	if len(valid) == 0 {
		return "All LLM providers failed to respond. Unable to make a decision."
	}

	counts := map[verdict.Decision]int{}
	for _, a := range valid {
		counts[a.Decision]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Final Decision: %s** (confidence: %.2f)\n\n**Voting Summary:**\n",
		strings.ToUpper(string(final)), confidence)
	for _, d := range []verdict.Decision{verdict.DecisionYes, verdict.DecisionNo, verdict.DecisionUncertain} {
		if counts[d] > 0 {
			fmt.Fprintf(&b, "- %s: %d provider(s)\n", strings.ToUpper(string(d)), counts[d])
		}
	}
	fmt.Fprintf(&b, "\n**Total Weight Used:** %.2f\n\n**Individual Provider Assessments:**\n", totalWeight)
	for _, a := range answers {
		s.writeAnswerLine(&b, a, strings.ToUpper(string(a.Decision)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scorer) explainDispute(answers []verdict.Answer, final verdict.Party, confidence, totalWeight float64) string {
	valid := validAnswers(answers)
	if len(valid) == 0 {
		return "All LLM providers failed to respond. Unable to make a decision."
	}

	counts := map[verdict.Party]int{}
	for _, a := range valid {
		counts[partyOf(a)]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Final Decision: %s** (confidence: %.2f)\n\n**Voting Summary:**\n",
		strings.ToUpper(string(final)), confidence)
	for _, p := range []verdict.Party{verdict.PartyA, verdict.PartyB, verdict.PartyDraw} {
		if counts[p] > 0 {
			fmt.Fprintf(&b, "- %s: %d provider(s)\n", strings.ToUpper(string(p)), counts[p])
		}
	}
	fmt.Fprintf(&b, "\n**Total Weight Used:** %.2f\n\n**Individual Provider Assessments:**\n", totalWeight)
	for _, a := range answers {
		s.writeAnswerLine(&b, a, strings.ToUpper(string(partyOf(a))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scorer) explainMedia(answers []verdict.MediaAnswer, final verdict.MediaVerdict, confidence, totalWeight float64) string {
	valid := validMediaAnswers(answers)
	if len(valid) == 0 {
		return "All LLM providers failed to respond. Unable to analyze post credibility."
	}

	counts := map[verdict.MediaVerdict]int{}
	for _, a := range valid {
		counts[a.Verdict]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Final Verdict: %s** (confidence: %.2f)\n\n**Analysis Summary:**\n",
		strings.ToUpper(string(final)), confidence)
	for _, v := range []verdict.MediaVerdict{verdict.VerdictCredible, verdict.VerdictQuestionable, verdict.VerdictMisleading, verdict.VerdictOpinion} {
		if counts[v] > 0 {
			fmt.Fprintf(&b, "- %s: %d provider(s)\n", strings.ToUpper(string(v)), counts[v])
		}
	}
	fmt.Fprintf(&b, "\n**Total Weight Used:** %.2f\n", totalWeight)

	if claims := collectDistinct(valid, func(a verdict.MediaAnswer) []string { return a.IdentifiedClaims }); len(claims) > 0 {
		b.WriteString("\n**Identified Claims:**\n")
		for _, c := range claims {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	if flags := collectDistinct(valid, func(a verdict.MediaAnswer) []string { return a.RedFlags }); len(flags) > 0 {
		b.WriteString("\n**Red Flags:**\n")
		for _, f := range flags {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	b.WriteString("\n**Individual Provider Analyses:**\n")
	for _, a := range answers {
		if a.Error != "" {
			fmt.Fprintf(&b, "- **%s** (weight: %.1f): %s (confidence: %.2f) [failed: %s]\n",
				strings.ToUpper(a.Provider), s.weight(a.Provider), strings.ToUpper(string(a.Verdict)), a.Confidence, a.Error)
			continue
		}
		fmt.Fprintf(&b, "- **%s** (weight: %.1f): %s (confidence: %.2f)\n",
			strings.ToUpper(a.Provider), s.weight(a.Provider), strings.ToUpper(string(a.Verdict)), a.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scorer) writeAnswerLine(b *strings.Builder, a verdict.Answer, decision string) {
	if a.Error != "" {
		fmt.Fprintf(b, "- **%s** (weight: %.1f): %s (confidence: %.2f) [failed: %s]\n",
			strings.ToUpper(a.Provider), s.weight(a.Provider), decision, a.Confidence, a.Error)
		return
	}
	fmt.Fprintf(b, "- **%s** (weight: %.1f): %s (confidence: %.2f)\n",
		strings.ToUpper(a.Provider), s.weight(a.Provider), decision, a.Confidence)
}

func validAnswers(answers []verdict.Answer) []verdict.Answer {
	out := make([]verdict.Answer, 0, len(answers))
	for _, a := range answers {
		if a.Error == "" {
			out = append(out, a)
		}
	}
	return out
}

func validMediaAnswers(answers []verdict.MediaAnswer) []verdict.MediaAnswer {
	out := make([]verdict.MediaAnswer, 0, len(answers))
	for _, a := range answers {
		if a.Error == "" {
			out = append(out, a)
		}
	}
	return out
}

// collectDistinct merges per-provider lists preserving first-seen order,
// capped at 5 entries so summaries stay short.
func collectDistinct(answers []verdict.MediaAnswer, pick func(verdict.MediaAnswer) []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, a := range answers {
		for _, item := range pick(a) {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
			if len(out) == 5 {
				return out
			}
		}
	}
	return out
}
