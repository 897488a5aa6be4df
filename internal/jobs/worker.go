package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/model"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/oracle"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/signing"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/telemetry"
	"github.com/Milbaxter/onchain-judges-dispute-resolution/internal/verdict"
)

// MaxRetries is how many re-deliveries a job gets after its first attempt.
const MaxRetries = 2

// JobStore is the slice of Store the pool needs.
type JobStore interface {
	Get(id string) (*model.Job, error)
	MarkProcessing(id string) error
	SetStatus(id string, status model.JobStatus) error
	SetResult(id string, resultJSON []byte) error
	SetError(id, errMsg string) error
	PruneKeepingLatest(keep int) (int64, error)
}

// Resolver runs one consensus round per query type.
type Resolver interface {
	ResolveFactual(ctx context.Context, query string) (*verdict.Result, error)
	ResolveDispute(ctx context.Context, contract, disputeDetails string) (*verdict.DisputeResult, error)
	AnalyzeMedia(ctx context.Context, postURL string) (*verdict.MediaResult, error)
}

// Notifier pushes job lifecycle events to live subscribers.
type Notifier interface {
	JobAnswered(jobID, provider string, failed bool)
	JobCompleted(jobID string)
	JobFailed(jobID, errMsg string)
}

type nopNotifier struct{}

func (nopNotifier) JobAnswered(string, string, bool) {}
func (nopNotifier) JobCompleted(string)              {}
func (nopNotifier) JobFailed(string, string)         {}

type PoolConfig struct {
	Workers       int
	RoundTimeout  time.Duration
	RetryDelay    time.Duration
	SweepInterval time.Duration
	KeepJobs      int
}

// Pool consumes the queue with a fixed number of workers, one in-flight
// job per worker slot. Retryable failures are re-enqueued after a fixed
// delay until MaxRetries is exhausted; then the job is failed for good.
type Pool struct {
	store    JobStore
	queue    *Queue
	resolver Resolver
	signer   signing.Signer
	notify   Notifier
	cfg      PoolConfig
}

func NewPool(store JobStore, queue *Queue, resolver Resolver, signer signing.Signer, notify Notifier, cfg PoolConfig) *Pool {
	if notify == nil {
		notify = nopNotifier{}
	}
	if signer == nil {
		signer = signing.Passthrough{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	return &Pool{store: store, queue: queue, resolver: resolver, signer: signer, notify: notify, cfg: cfg}
}

// Run blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	log := telemetry.L().With().Str("module", "jobs").Logger()
	log.Info().Int("workers", p.cfg.Workers).Msg("pool_start")

	if p.cfg.SweepInterval > 0 && p.cfg.KeepJobs > 0 {
		go p.sweep(ctx)
	}

	done := make(chan struct{})
	for i := 0; i < p.cfg.Workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			p.worker(ctx)
		}()
	}
	for i := 0; i < p.cfg.Workers; i++ {
		<-done
	}
	log.Info().Msg("pool_stop")
}

func (p *Pool) worker(ctx context.Context) {
	log := telemetry.L().With().Str("module", "jobs").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok, err := p.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("dequeue_error")
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}
		p.Process(ctx, task)
	}
}

// Process runs one delivery of one job end to end.
func (p *Pool) Process(ctx context.Context, task Task) {
	log := telemetry.L().With().Str("job_id", task.JobID).Int("attempt", task.Attempt).Logger()

	job, err := p.store.Get(task.JobID)
	if err != nil {
		log.Error().Err(err).Msg("job_load_failed")
		return
	}
	if job.Status == model.StatusCompleted || job.Status == model.StatusFailed {
		log.Warn().Str("status", string(job.Status)).Msg("job_already_finished")
		return
	}
	if err := p.store.MarkProcessing(job.ID); err != nil {
		log.Error().Err(err).Msg("mark_processing_failed")
		return
	}

	roundCtx, cancel := context.WithTimeout(ctx, p.cfg.RoundTimeout)
	defer cancel()
	roundCtx = oracle.WithAnswerHook(roundCtx, func(provider string, failed bool) {
		p.notify.JobAnswered(job.ID, provider, failed)
	})

	resultJSON, err := p.resolve(roundCtx, job)
	if err != nil {
		p.handleFailure(task, job, err)
		return
	}

	if err := p.store.SetResult(job.ID, resultJSON); err != nil {
		log.Error().Err(err).Msg("result_persist_failed")
		p.handleFailure(task, job, err)
		return
	}
	p.notify.JobCompleted(job.ID)
	log.Info().Msg("job_completed")
}

// resolve dispatches on query type, signs the document and returns its
// final JSON form. The signature covers the document without the
// signature fields themselves.
func (p *Pool) resolve(ctx context.Context, job *model.Job) ([]byte, error) {
	switch job.QueryType {
	case model.TypeFactual:
		res, err := p.resolver.ResolveFactual(ctx, job.Query)
		if err != nil {
			return nil, err
		}
		if err := p.sign(&res.Signature, &res.PublicKey, res); err != nil {
			return nil, err
		}
		return json.Marshal(res)
	case model.TypeDispute:
		res, err := p.resolver.ResolveDispute(ctx, job.Contract.String, job.Query)
		if err != nil {
			return nil, err
		}
		if err := p.sign(&res.Signature, &res.PublicKey, res); err != nil {
			return nil, err
		}
		return json.Marshal(res)
	case model.TypeMedia:
		res, err := p.resolver.AnalyzeMedia(ctx, job.Query)
		if err != nil {
			return nil, err
		}
		if err := p.sign(&res.Signature, &res.PublicKey, res); err != nil {
			return nil, err
		}
		return json.Marshal(res)
	}
	return nil, fmt.Errorf("unknown query type %q", job.QueryType)
}

func (p *Pool) sign(sigField, pubField *string, doc any) error {
	canonical, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	sig, pub, err := p.signer.Sign(canonical)
	if err != nil {
		return err
	}
	*sigField, *pubField = sig, pub
	return nil
}

// handleFailure either schedules a delayed retry or fails the job for
// good once retries are exhausted. Failed is terminal.
func (p *Pool) handleFailure(task Task, job *model.Job, cause error) {
	l := telemetry.L().With().Str("job_id", job.ID).Int("attempt", task.Attempt).Logger()

	if task.Attempt < MaxRetries {
		l.Warn().Err(cause).Dur("retry_in", p.cfg.RetryDelay).Msg("job_retry_scheduled")
		if err := p.store.SetStatus(job.ID, model.StatusPending); err != nil {
			l.Error().Err(err).Msg("retry_status_failed")
		}
		next := Task{JobID: task.JobID, Attempt: task.Attempt + 1}
		time.AfterFunc(p.cfg.RetryDelay, func() {
			if err := p.queue.Enqueue(context.Background(), next); err != nil {
				l.Error().Err(err).Msg("retry_enqueue_failed")
			}
		})
		return
	}

	l.Error().Err(cause).Msg("job_failed")
	if err := p.store.SetError(job.ID, cause.Error()); err != nil {
		l.Error().Err(err).Msg("error_persist_failed")
	}
	p.notify.JobFailed(job.ID, cause.Error())
}

func (p *Pool) sweep(ctx context.Context) {
	log := telemetry.L().With().Str("module", "jobs").Logger()
	t := time.NewTicker(p.cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.store.PruneKeepingLatest(p.cfg.KeepJobs)
			if err != nil {
				log.Error().Err(err).Msg("sweep_failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("pruned", n).Msg("sweep_done")
			}
		}
	}
}
