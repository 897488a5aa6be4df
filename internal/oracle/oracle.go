package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/consensus"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/providers"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/telemetry"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/verdict"
)

const (
	// MinProviders is the smallest panel that still counts as a consensus.
	MinProviders = 2
	// MaxFailedAnswers is how many provider failures one round tolerates
	// before the verdict is considered unreliable.
	MaxFailedAnswers = 2

	maxConcurrentCalls = 5
)

var (
	// ErrTooManyFailures aborts a round before scoring. The job layer
	// treats it as retryable.
	ErrTooManyFailures = errors.New("too many provider failures in round")
	// ErrNoMediaProviders means no configured adapter can fetch posts.
	ErrNoMediaProviders = errors.New("no media-capable providers configured")
)

// Entry binds a configuration key to an adapter. The key, not the
// adapter's self-reported name, tags every answer so that weights and
// logs always refer to the operator's naming.
type Entry struct {
	Key    string
	Client providers.Client
}

// Oracle runs one bounded concurrent round per query across the
// configured panel and scores the answers.
type Oracle struct {
	entries     []Entry
	scorer      *consensus.Scorer
	callTimeout time.Duration
}

func New(entries []Entry, scorer *consensus.Scorer, callTimeout time.Duration) (*Oracle, error) {
	if len(entries) < MinProviders {
		return nil, fmt.Errorf("need at least %d providers, got %d", MinProviders, len(entries))
	}
	return &Oracle{entries: entries, scorer: scorer, callTimeout: callTimeout}, nil
}

// AnswerHook is invoked once per provider as its answer lands, before the
// round is scored. Used for live updates; must not block.
type AnswerHook func(provider string, failed bool)

type hookKey struct{}

func WithAnswerHook(ctx context.Context, hook AnswerHook) context.Context {
	return context.WithValue(ctx, hookKey{}, hook)
}

func hookFrom(ctx context.Context) AnswerHook {
	if h, ok := ctx.Value(hookKey{}).(AnswerHook); ok {
		return h
	}
	return func(string, bool) {}
}

// ResolveFactual answers a yes/no question with a weighted consensus.
func (o *Oracle) ResolveFactual(ctx context.Context, query string) (*verdict.Result, error) {
	prompt := providers.BuildFactualPrompt(query)
	answers := o.fanOut(ctx, prompt, verdict.ParseFactual, verdict.FailedAnswer)
	if err := checkFailures(countFailed(answers)); err != nil {
		return nil, err
	}
	return o.scorer.AggregateFactual(query, answers), nil
}

// ResolveDispute arbitrates an A/B contract dispute.
func (o *Oracle) ResolveDispute(ctx context.Context, contract, disputeDetails string) (*verdict.DisputeResult, error) {
	prompt := providers.BuildDisputePrompt(contract, disputeDetails)
	answers := o.fanOut(ctx, prompt, verdict.ParseDispute, verdict.FailedDisputeAnswer)
	if err := checkFailures(countFailed(answers)); err != nil {
		return nil, err
	}
	return o.scorer.AggregateDispute(disputeDetails, answers), nil
}

// AnalyzeMedia judges a social post's credibility. Only adapters with the
// media capability take part in the round.
func (o *Oracle) AnalyzeMedia(ctx context.Context, postURL string) (*verdict.MediaResult, error) {
	var capable []Entry
	var analyzers []providers.MediaAnalyzer
	for _, e := range o.entries {
		if ma, ok := e.Client.(providers.MediaAnalyzer); ok {
			capable = append(capable, e)
			analyzers = append(analyzers, ma)
		}
	}
	if len(capable) == 0 {
		return nil, ErrNoMediaProviders
	}

	hook := hookFrom(ctx)
	log := telemetry.L().With().Str("round", "media").Logger()

	answers := make([]verdict.MediaAnswer, len(capable))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(capable), maxConcurrentCalls))

	for i, e := range capable {
		i, e, ma := i, e, analyzers[i]
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("provider", e.Key).Interface("panic", r).Msg("provider_panic")
					answers[i] = verdict.FailedMediaAnswer(e.Key, "", fmt.Sprintf("panic: %v", r))
					hook(e.Key, true)
				}
			}()

			callCtx, cancel := context.WithTimeout(gctx, o.callTimeout)
			defer cancel()

			raw, err := ma.AnalyzeMedia(callCtx, postURL)
			if err != nil {
				log.Error().Err(err).Str("provider", e.Key).Msg("provider_call_error")
				answers[i] = verdict.FailedMediaAnswer(e.Key, raw.Model, err.Error())
				hook(e.Key, true)
				return nil
			}

			ans := verdict.ParseMedia(raw.Text)
			ans.Provider = e.Key
			ans.Model = raw.Model
			answers[i] = ans
			hook(e.Key, false)
			log.Info().Str("provider", e.Key).Int("latency_ms", raw.LatencyMs).Msg("provider_done")
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, a := range answers {
		if a.Error != "" {
			failed++
		}
	}
	if err := checkFailures(failed); err != nil {
		return nil, err
	}
	return o.scorer.AggregateMedia(postURL, answers), nil
}

// fanOut runs one prompt against the full panel. Results keep configured
// provider order regardless of arrival order, and every slot is filled:
// errors and panics become failed answers instead of gaps.
func (o *Oracle) fanOut(
	ctx context.Context,
	prompt string,
	parse func(string) verdict.Answer,
	failedAnswer func(provider, model, errMsg string) verdict.Answer,
) []verdict.Answer {
	hook := hookFrom(ctx)
	log := telemetry.L()

	answers := make([]verdict.Answer, len(o.entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(o.entries), maxConcurrentCalls))

	for i, e := range o.entries {
		i, e := i, e
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("provider", e.Key).Interface("panic", r).Msg("provider_panic")
					answers[i] = failedAnswer(e.Key, "", fmt.Sprintf("panic: %v", r))
					hook(e.Key, true)
				}
			}()

			callCtx, cancel := context.WithTimeout(gctx, o.callTimeout)
			defer cancel()

			raw, err := e.Client.Query(callCtx, prompt)
			if err != nil {
				log.Error().Err(err).Str("provider", e.Key).Msg("provider_call_error")
				answers[i] = failedAnswer(e.Key, raw.Model, err.Error())
				hook(e.Key, true)
				return nil
			}

			ans := parse(raw.Text)
			ans.Provider = e.Key
			ans.Model = raw.Model
			answers[i] = ans
			hook(e.Key, false)
			log.Info().Str("provider", e.Key).Int("latency_ms", raw.LatencyMs).Msg("provider_done")
			return nil
		})
	}
	_ = g.Wait()
	return answers
}

func countFailed(answers []verdict.Answer) int {
	failed := 0
	for _, a := range answers {
		if a.Error != "" {
			failed++
		}
	}
	return failed
}

func checkFailures(failed int) error {
	if failed > MaxFailedAnswers {
		return fmt.Errorf("%w: %d failed", ErrTooManyFailures, failed)
	}
	return nil
}
