package generation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costpilot/pkg/errors"
)

// scriptedGateway replays a fixed sequence of responses. A nil error with
// empty text falls through to whatever the responses slice holds.
type scriptedGateway struct {
	responses []scriptedResponse
	calls     int
	prompts   []string
}

type scriptedResponse struct {
	text string
	err  error
}

func (g *scriptedGateway) Complete(_ context.Context, prompt string, _ int) (string, error) {
	g.prompts = append(g.prompts, prompt)
	r := g.responses[g.calls]
	g.calls++
	return r.text, r.err
}

func noSleep(context.Context, time.Duration) error { return nil }

func itemConstraint() Constraint {
	return Constraint{
		Collection: true,
		MinItems:   1,
		MaxItems:   5,
		Fields: []Field{
			{Name: "service", Type: FieldString},
			{Name: "cost_inr", Type: FieldNumber, NonNegative: true},
		},
	}
}

func okFallback(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[{"service": "Compute", "cost_inr": 42}]`), nil
}

func TestOrchestrator_FirstAttemptSucceeds(t *testing.T) {
	gw := &scriptedGateway{responses: []scriptedResponse{
		{text: `[{"service": "Compute", "cost_inr": 100}]`},
	}}
	o := NewOrchestrator(gw, 3, WithSleep(noSleep))

	res, err := o.Run(context.Background(), Request{
		Stage:      StageBilling,
		Prompt:     "generate",
		Constraint: itemConstraint(),
	}, okFallback)

	require.NoError(t, err)
	assert.Equal(t, OriginAI, res.Origin)
	assert.Equal(t, 1, gw.calls)
	require.Len(t, res.Attempts, 1)
	assert.Empty(t, res.Attempts[0].Violations)
}

func TestOrchestrator_InvalidThenValid(t *testing.T) {
	gw := &scriptedGateway{responses: []scriptedResponse{
		{text: "I cannot produce JSON today."},
		{text: `[{"service": "Compute", "cost_inr": 100}]`},
	}}
	o := NewOrchestrator(gw, 3, WithSleep(noSleep))

	res, err := o.Run(context.Background(), Request{
		Stage:      StageBilling,
		Prompt:     "generate",
		Constraint: itemConstraint(),
	}, okFallback)

	require.NoError(t, err)
	assert.Equal(t, OriginAI, res.Origin)
	assert.Equal(t, 2, gw.calls)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, []string{ViolationUnparseable}, res.Attempts[0].Violations)

	// The retry prompt feeds the failure back.
	require.Len(t, gw.prompts, 2)
	assert.Contains(t, gw.prompts[1], "PREVIOUS OUTPUT WAS NOT JSON")
}

func TestOrchestrator_SchemaViolationFeedback(t *testing.T) {
	gw := &scriptedGateway{responses: []scriptedResponse{
		{text: `[{"service": "Compute"}]`},
		{text: `[{"service": "Compute", "cost_inr": 100}]`},
	}}
	o := NewOrchestrator(gw, 3, WithSleep(noSleep))

	res, err := o.Run(context.Background(), Request{
		Stage:      StageBilling,
		Prompt:     "generate",
		Constraint: itemConstraint(),
	}, okFallback)

	require.NoError(t, err)
	assert.Equal(t, OriginAI, res.Origin)
	assert.Contains(t, gw.prompts[1], "PREVIOUS OUTPUT INVALID")
	assert.Contains(t, gw.prompts[1], "cost_inr")
}

func TestOrchestrator_ExhaustionDegradesToFallback(t *testing.T) {
	gw := &scriptedGateway{responses: []scriptedResponse{
		{err: errors.Wrap(errors.ErrGatewayService, "status 500")},
		{err: errors.Wrap(errors.ErrGatewayService, "status 500")},
		{err: errors.Wrap(errors.ErrGatewayService, "status 500")},
	}}
	o := NewOrchestrator(gw, 3, WithSleep(noSleep))

	res, err := o.Run(context.Background(), Request{
		Stage:      StageProfile,
		Prompt:     "generate",
		Constraint: itemConstraint(),
	}, okFallback)

	require.NoError(t, err)
	assert.Equal(t, OriginFallback, res.Origin)
	assert.Equal(t, 3, gw.calls, "gateway must be called exactly maxAttempts times")
	require.Len(t, res.Attempts, 3)
	for _, a := range res.Attempts {
		assert.Equal(t, "service_error", a.ClassifiedError)
	}
	assert.JSONEq(t, `[{"service": "Compute", "cost_inr": 42}]`, string(res.Payload))
}

func TestOrchestrator_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"network", errors.Wrap(errors.ErrGatewayNetwork, "dial refused"), "network_error"},
		{"service", errors.Wrap(errors.ErrGatewayService, "status 503"), "service_error"},
		{"empty", errors.Wrap(errors.ErrGatewayEmpty, "no choices"), "empty_response"},
		{"unknown", errors.New("something odd"), "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &scriptedGateway{responses: []scriptedResponse{
				{err: tt.err},
				{text: `[{"service": "Compute", "cost_inr": 1}]`},
			}}
			o := NewOrchestrator(gw, 3, WithSleep(noSleep))

			res, err := o.Run(context.Background(), Request{
				Stage:      StageBilling,
				Prompt:     "generate",
				Constraint: itemConstraint(),
			}, okFallback)

			require.NoError(t, err)
			require.Len(t, res.Attempts, 2)
			assert.Equal(t, tt.expected, res.Attempts[0].ClassifiedError)
		})
	}
}

func TestOrchestrator_InvalidFallbackFails(t *testing.T) {
	gw := &scriptedGateway{responses: []scriptedResponse{
		{text: "garbage"},
	}}
	o := NewOrchestrator(gw, 1, WithSleep(noSleep))

	badFallback := func(context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[{"service": "Compute"}]`), nil
	}

	_, err := o.Run(context.Background(), Request{
		Stage:      StageBilling,
		Prompt:     "generate",
		Constraint: itemConstraint(),
	}, badFallback)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFallbackInvalid))
}

func TestOrchestrator_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := &scriptedGateway{responses: []scriptedResponse{
		{err: ctx.Err()},
	}}
	o := NewOrchestrator(gw, 3, WithSleep(noSleep))

	_, err := o.Run(ctx, Request{
		Stage:      StageProfile,
		Prompt:     "generate",
		Constraint: itemConstraint(),
	}, okFallback)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStageAborted))
}

func TestOrchestrator_Backoff(t *testing.T) {
	o := NewOrchestrator(nil, 5, WithBackoff(2*time.Second, 30*time.Second))

	assert.Equal(t, 2*time.Second, o.backoff(1))
	assert.Equal(t, 4*time.Second, o.backoff(2))
	assert.Equal(t, 8*time.Second, o.backoff(3))
	assert.Equal(t, 30*time.Second, o.backoff(10), "delay is capped")
}
