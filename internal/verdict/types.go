package verdict

import "time"

// Decision is the closed set of answers for factual yes/no queries.
type Decision string

const (
	DecisionYes       Decision = "yes"
	DecisionNo        Decision = "no"
	DecisionUncertain Decision = "uncertain"
)

// Party is the closed set of outcomes for contract disputes.
// Draw is the neutral class.
type Party string

const (
	PartyA    Party = "A"
	PartyB    Party = "B"
	PartyDraw Party = "draw"
)

// MediaVerdict is the closed set of credibility outcomes for social posts.
type MediaVerdict string

const (
	VerdictCredible     MediaVerdict = "credible"
	VerdictQuestionable MediaVerdict = "questionable"
	VerdictMisleading   MediaVerdict = "misleading"
	VerdictOpinion      MediaVerdict = "opinion"
)

// Answer is one provider's normalized response for a factual or dispute
// round. Decision is set in factual rounds, WinningParty in dispute rounds.
// A failed provider call still yields an Answer, with Error set, the
// neutral class and confidence 0.
type Answer struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Decision     Decision `json:"decision"`
	WinningParty *Party  `json:"winning_party,omitempty"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
	Raw          string  `json:"raw_response,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// MediaAnswer is one provider's normalized credibility analysis.
type MediaAnswer struct {
	Provider         string       `json:"provider"`
	Model            string       `json:"model"`
	Verdict          MediaVerdict `json:"verdict"`
	Confidence       float64      `json:"confidence"`
	Analysis         string       `json:"analysis"`
	IdentifiedClaims []string     `json:"identified_claims"`
	RedFlags         []string     `json:"red_flags"`
	Raw              string       `json:"raw_response,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// Result is the aggregated verdict for a factual query.
type Result struct {
	Query           string    `json:"query"`
	FinalDecision   Decision  `json:"final_decision"`
	FinalConfidence float64   `json:"final_confidence"`
	Explanation     string    `json:"explanation"`
	Responses       []Answer  `json:"llm_responses"`
	TotalWeight     float64   `json:"total_weight"`
	Timestamp       time.Time `json:"timestamp"`
	Signature       string    `json:"signature,omitempty"`
	PublicKey       string    `json:"public_key,omitempty"`
}

// DisputeResult is the aggregated verdict for a contract dispute.
type DisputeResult struct {
	Query           string    `json:"query"`
	FinalDecision   Party     `json:"final_decision"`
	FinalConfidence float64   `json:"final_confidence"`
	Explanation     string    `json:"explanation"`
	Responses       []Answer  `json:"llm_responses"`
	TotalWeight     float64   `json:"total_weight"`
	Timestamp       time.Time `json:"timestamp"`
	Signature       string    `json:"signature,omitempty"`
	PublicKey       string    `json:"public_key,omitempty"`
}

// PostData identifies the analyzed social post. Providers with direct
// content access fetch the post themselves, so only the URL is kept.
type PostData struct {
	URL string `json:"url"`
}

// MediaResult is the aggregated credibility verdict for a social post.
type MediaResult struct {
	Post            PostData      `json:"post"`
	FinalVerdict    MediaVerdict  `json:"final_verdict"`
	FinalConfidence float64       `json:"final_confidence"`
	AnalysisSummary string        `json:"analysis_summary"`
	Responses       []MediaAnswer `json:"llm_responses"`
	TotalWeight     float64       `json:"total_weight"`
	Timestamp       time.Time     `json:"timestamp"`
	Signature       string        `json:"signature,omitempty"`
	PublicKey       string        `json:"public_key,omitempty"`
}

// FailedAnswer builds the answer recorded when a provider call errors out
// in a factual round.
func FailedAnswer(provider, model, errMsg string) Answer {
	return Answer{
		Provider:   provider,
		Model:      model,
		Decision:   DecisionUncertain,
		Confidence: 0.0,
		Reasoning:  errMsg,
		Error:      errMsg,
	}
}

// FailedDisputeAnswer builds the answer recorded when a provider call
// errors out in a dispute round.
func FailedDisputeAnswer(provider, model, errMsg string) Answer {
	draw := PartyDraw
	return Answer{
		Provider:     provider,
		Model:        model,
		Decision:     DecisionUncertain,
		WinningParty: &draw,
		Confidence:   0.0,
		Reasoning:    errMsg,
		Error:        errMsg,
	}
}

// FailedMediaAnswer builds the answer recorded when a provider call errors
// out in a media round.
func FailedMediaAnswer(provider, model, errMsg string) MediaAnswer {
	return MediaAnswer{
		Provider:         provider,
		Model:            model,
		Verdict:          VerdictQuestionable,
		Confidence:       0.0,
		Analysis:         errMsg,
		IdentifiedClaims: []string{},
		RedFlags:         []string{},
		Error:            errMsg,
	}
}
