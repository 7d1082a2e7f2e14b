// Package simulated stands in for the remote backend that records level completions.
package simulated

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"mindgate-service/internal/domain"
)

const (
	DefaultLatency     = 500 * time.Millisecond
	DefaultTimeout     = 5 * time.Second
	DefaultFailureRate = 0.1

	rejectedMessage = "Failed to submit answer. Please try again."
	timeoutMessage  = "Submission timed out. Please try again."
	canceledMessage = "Submission was canceled."
)

// Decider plays the server: it reports whether a submission is accepted.
type Decider interface {
	Accept(req domain.SubmissionRequest) bool
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(req domain.SubmissionRequest) bool

func (f DeciderFunc) Accept(req domain.SubmissionRequest) bool { return f(req) }

// AlwaysAccept accepts every submission.
var AlwaysAccept = DeciderFunc(func(domain.SubmissionRequest) bool { return true })

// AlwaysReject rejects every submission.
var AlwaysReject = DeciderFunc(func(domain.SubmissionRequest) bool { return false })

// randomDecider rejects a fixed share of submissions.
type randomDecider struct {
	mu   sync.Mutex
	rate float64
	rnd  *rand.Rand
}

// FailureRate rejects roughly rate of all submissions using rnd.
func FailureRate(rate float64, rnd *rand.Rand) Decider {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &randomDecider{rate: rate, rnd: rnd}
}

func (d *randomDecider) Accept(domain.SubmissionRequest) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rnd.Float64() >= d.rate
}

// SubmissionService simulates network latency and a server decision.
type SubmissionService struct {
	latency time.Duration
	timeout time.Duration
	decider Decider
}

// Option customizes a SubmissionService.
type Option func(*SubmissionService)

// WithLatency sets the simulated round-trip time.
func WithLatency(d time.Duration) Option {
	return func(s *SubmissionService) { s.latency = d }
}

// WithTimeout sets the default per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *SubmissionService) { s.timeout = d }
}

// WithDecider replaces the random server decision.
func WithDecider(d Decider) Option {
	return func(s *SubmissionService) { s.decider = d }
}

func NewSubmissionService(opts ...Option) *SubmissionService {
	s := &SubmissionService{
		latency: DefaultLatency,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.decider == nil {
		s.decider = FailureRate(DefaultFailureRate, nil)
	}
	return s
}

// Submit records a level completion using the default timeout.
func (s *SubmissionService) Submit(ctx context.Context, req domain.SubmissionRequest) domain.SubmissionResult {
	return s.SubmitWithTimeout(ctx, req, s.timeout)
}

// SubmitWithTimeout records a level completion, giving up once timeout elapses.
// There are no retries; a failed result is left to the caller.
func (s *SubmissionService) SubmitWithTimeout(ctx context.Context, req domain.SubmissionRequest, timeout time.Duration) domain.SubmissionResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := log.With().Str("game", req.GameID).Str("level", req.LevelID).Logger()
	logger.Debug().Msg("submitting level")
	started := time.Now()

	if err := wait(ctx, s.latency); err != nil {
		result := canceledResult(err)
		logger.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("level submission aborted")
		return result
	}

	if !s.decider.Accept(req) {
		logger.Warn().Msg("level submission rejected")
		return domain.SubmissionResult{Success: false, Error: rejectedMessage, Reason: domain.ReasonRejected}
	}
	logger.Info().Dur("elapsed", time.Since(started)).Msg("level submission accepted")
	return domain.SubmissionResult{Success: true}
}

// wait blocks for d, returning early with the context error when ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func canceledResult(err error) domain.SubmissionResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.SubmissionResult{Success: false, Error: timeoutMessage, Reason: domain.ReasonTimeout}
	}
	return domain.SubmissionResult{Success: false, Error: canceledMessage, Reason: domain.ReasonCanceled}
}
