package generation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"costpilot/pkg/errors"
	"costpilot/pkg/logger"
)

// Gateway is the single-call boundary to the inference collaborator.
// Satisfied by ai.ChatProvider.
type Gateway interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Fallback produces a schema-valid document deterministically, without
// external calls. Its output is asserted against the stage constraint.
type Fallback func(ctx context.Context) (json.RawMessage, error)

// state is the orchestrator's position in its machine:
// pending -> requesting -> validating -> {success | retrying -> requesting | fallback}
type state int

const (
	statePending state = iota
	stateRequesting
	stateValidating
	stateRetrying
	stateFallback
)

const maxRawResponseBytes = 2048

// Orchestrator drives a gateway call through bounded validated retries,
// degrading to the stage fallback. Every path terminates: at most
// maxAttempts gateway calls, and fallback never loops.
type Orchestrator struct {
	gateway        Gateway
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	log            *logger.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBackoff overrides the exponential backoff bounds.
func WithBackoff(initial, max time.Duration) Option {
	return func(o *Orchestrator) {
		o.initialBackoff = initial
		o.maxBackoff = max
	}
}

// WithSleep overrides the blocking delay. Used in tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// NewOrchestrator creates an orchestrator bounded at maxAttempts gateway
// calls per request.
func NewOrchestrator(gateway Gateway, maxAttempts int, opts ...Option) *Orchestrator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	o := &Orchestrator{
		gateway:        gateway,
		maxAttempts:    maxAttempts,
		initialBackoff: 2 * time.Second,
		maxBackoff:     30 * time.Second,
		sleep:          sleepCtx,
		log:            logger.Get(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the request. It returns a Result whose payload satisfies the
// request constraint, with origin ai or fallback. The only errors it returns
// are cancellation and a fallback that violates its own constraint.
func (o *Orchestrator) Run(ctx context.Context, req Request, fallback Fallback) (*Result, error) {
	log := o.log.With("stage", req.Stage.String())

	var (
		attempts []Attempt
		attempt  = Attempt{Number: 1}
		prompt   = req.Prompt
		raw      string
		st       = statePending
	)

	for {
		switch st {
		case statePending:
			st = stateRequesting

		case stateRequesting:
			text, err := o.gateway.Complete(ctx, prompt, req.MaxTokens)
			if err != nil {
				if ctx.Err() != nil {
					return nil, errors.Wrapf(errors.ErrStageAborted, "stage %s: %v", req.Stage, ctx.Err())
				}
				attempt.ClassifiedError = classify(err)
				log.Warnf("attempt %d failed: %s", attempt.Number, attempt.ClassifiedError)
				st = stateRetrying
				continue
			}
			raw = text
			attempt.RawResponse = truncate(text, maxRawResponseBytes)
			st = stateValidating

		case stateValidating:
			payload, violations := Validate(raw, req.Constraint)
			if len(violations) == 0 {
				attempts = append(attempts, attempt)
				log.Infof("validated on attempt %d", attempt.Number)
				return &Result{
					Stage:    req.Stage,
					Payload:  payload,
					Origin:   OriginAI,
					Attempts: attempts,
				}, nil
			}
			attempt.Violations = violations
			log.Warnf("attempt %d invalid: %s", attempt.Number, strings.Join(violations, "; "))
			st = stateRetrying

		case stateRetrying:
			attempts = append(attempts, attempt)
			if attempt.Number >= o.maxAttempts {
				st = stateFallback
				continue
			}
			if err := o.sleep(ctx, o.backoff(attempt.Number)); err != nil {
				return nil, errors.Wrapf(errors.ErrStageAborted, "stage %s: %v", req.Stage, err)
			}
			prompt = retryPrompt(req.Prompt, attempt)
			attempt = Attempt{Number: attempt.Number + 1}
			st = stateRequesting

		case stateFallback:
			doc, err := fallback(ctx)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrFallbackInvalid, "stage %s: %v", req.Stage, err)
			}
			// Invariant: fallback output always satisfies the constraint.
			if _, violations := Validate(string(doc), req.Constraint); len(violations) > 0 {
				return nil, errors.Wrapf(errors.ErrFallbackInvalid, "stage %s: %s",
					req.Stage, strings.Join(violations, "; "))
			}
			log.Infof("degraded to fallback after %d attempts", len(attempts))
			return &Result{
				Stage:    req.Stage,
				Payload:  doc,
				Origin:   OriginFallback,
				Attempts: attempts,
			}, nil
		}
	}
}

// backoff returns the exponential delay before retry n+1, capped at maxBackoff.
func (o *Orchestrator) backoff(attemptNumber int) time.Duration {
	d := o.initialBackoff
	for i := 1; i < attemptNumber; i++ {
		d *= 2
		if d >= o.maxBackoff {
			return o.maxBackoff
		}
	}
	if d > o.maxBackoff {
		d = o.maxBackoff
	}
	return d
}

// retryPrompt feeds the previous failure back to the model so the next
// attempt can correct it.
func retryPrompt(base string, prev Attempt) string {
	if len(prev.Violations) == 1 && prev.Violations[0] == ViolationUnparseable {
		return base + "\n\nPREVIOUS OUTPUT WAS NOT JSON.\nReturn ONLY valid JSON."
	}
	if len(prev.Violations) > 0 {
		return base + "\n\nPREVIOUS OUTPUT INVALID: " + strings.Join(prev.Violations, "; ") +
			"\nEnsure strict JSON compliance."
	}
	return base
}

func classify(err error) string {
	switch {
	case errors.Is(err, errors.ErrGatewayNetwork):
		return "network_error"
	case errors.Is(err, errors.ErrGatewayService):
		return "service_error"
	case errors.Is(err, errors.ErrGatewayEmpty):
		return "empty_response"
	default:
		return "unknown_error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
