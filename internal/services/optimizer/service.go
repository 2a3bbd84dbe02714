// Package optimizer runs the three-stage constrained-generation pipeline:
// profile extraction, simulated billing, and the cost-optimization report.
// Stages execute strictly in order; each stage's prompt is built from the
// previous stage's validated payload.
package optimizer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"costpilot/internal/analysis"
	"costpilot/internal/domain/billing"
	"costpilot/internal/domain/profile"
	"costpilot/internal/domain/report"
	"costpilot/internal/generation"
	"costpilot/pkg/errors"
	"costpilot/pkg/logger"
)

// Config bounds the retry machinery and locates the artifact directory.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	ArtifactDir    string
}

// Outcome carries everything a run produced. The per-stage origins are part
// of the result: downstream consumers must always know whether a document
// came from the model or the deterministic fallback.
type Outcome struct {
	Profile         profile.ProjectProfile
	Billing         []billing.Record
	Report          report.Report
	Origins         map[generation.StageKind]generation.Origin
	AttemptsByStage map[generation.StageKind][]generation.Attempt
}

// Service wires the orchestrator, the cost engine and the artifact writer
// into the sequential pipeline.
type Service struct {
	orch   *generation.Orchestrator
	engine *analysis.Engine
	fb     FallbackGenerator
	writer *ArtifactWriter
	log    *logger.Logger
	now    func() time.Time
}

// New creates the pipeline service. Extra orchestrator options are applied
// after the configured backoff; tests use them to remove delays.
func New(gateway generation.Gateway, cfg Config, orchOpts ...generation.Option) *Service {
	opts := append([]generation.Option{
		generation.WithBackoff(cfg.InitialBackoff, cfg.MaxBackoff),
	}, orchOpts...)

	return &Service{
		orch:   generation.NewOrchestrator(gateway, cfg.MaxAttempts, opts...),
		engine: analysis.NewEngine(),
		writer: NewArtifactWriter(cfg.ArtifactDir),
		log:    logger.Get(),
		now:    time.Now,
	}
}

// WithClock overrides the billing-month clock. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run executes Profile -> Billing -> Analysis for one project description
// and persists the three artifacts. A cancelled context aborts the in-flight
// stage; artifacts from completed stages stay on disk.
func (s *Service) Run(ctx context.Context, description string) (*Outcome, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty project description")
	}

	if err := s.writer.WriteText(ArtifactDescription, description+"\n"); err != nil {
		return nil, err
	}

	out := &Outcome{
		Origins:         make(map[generation.StageKind]generation.Origin),
		AttemptsByStage: make(map[generation.StageKind][]generation.Attempt),
	}

	// Stage 1: profile
	p, res, err := s.runProfile(ctx, description)
	if err != nil {
		return nil, err
	}
	out.Profile = p
	out.Origins[generation.StageProfile] = res.Origin
	out.AttemptsByStage[generation.StageProfile] = res.Attempts
	if err := s.writer.WriteJSON(ArtifactProfile, p); err != nil {
		return nil, err
	}
	s.log.Infof("profile stage complete (origin=%s, budget=%.0f)", res.Origin, p.Budget)

	// Stage 2: billing
	month := s.now().Format("2006-01")
	records, res, err := s.runBilling(ctx, p, month)
	if err != nil {
		return nil, err
	}
	out.Billing = records
	out.Origins[generation.StageBilling] = res.Origin
	out.AttemptsByStage[generation.StageBilling] = res.Attempts
	if err := s.writer.WriteJSON(ArtifactBilling, records); err != nil {
		return nil, err
	}
	s.log.Infof("billing stage complete (origin=%s, records=%d)", res.Origin, len(records))

	// Deterministic analysis feeds the final stage.
	analyzed := records
	if p.UsesSQLite() {
		analyzed = FoldSQLite(records)
	}
	summary := s.engine.Analyze(analyzed, p.Budget)

	// Stage 3: recommendations
	recs, res, err := s.runRecommendations(ctx, p, summary)
	if err != nil {
		return nil, err
	}
	out.Origins[generation.StageAnalysis] = res.Origin
	out.AttemptsByStage[generation.StageAnalysis] = res.Attempts

	out.Report = report.Report{
		ProjectName:     p.Name,
		Analysis:        summary,
		Recommendations: postProcessRecommendations(recs, p, summary, s.fb),
	}
	if err := s.writer.WriteJSON(ArtifactReport, out.Report); err != nil {
		return nil, err
	}
	s.log.Infof("analysis stage complete (origin=%s, recommendations=%d)",
		res.Origin, len(out.Report.Recommendations))

	return out, nil
}

func (s *Service) runProfile(ctx context.Context, description string) (profile.ProjectProfile, *generation.Result, error) {
	req := generation.Request{
		Stage:      generation.StageProfile,
		Prompt:     buildProfilePrompt(description),
		MaxTokens:  800,
		Constraint: profileConstraint(),
	}
	res, err := s.orch.Run(ctx, req, func(context.Context) (json.RawMessage, error) {
		return json.Marshal(s.fb.Profile(description))
	})
	if err != nil {
		return profile.ProjectProfile{}, nil, err
	}

	var p profile.ProjectProfile
	if err := json.Unmarshal(res.Payload, &p); err != nil {
		return profile.ProjectProfile{}, nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	return sanitizeProfile(p, description), res, nil
}

func (s *Service) runBilling(ctx context.Context, p profile.ProjectProfile, month string) ([]billing.Record, *generation.Result, error) {
	req := generation.Request{
		Stage:      generation.StageBilling,
		Prompt:     buildBillingPrompt(p, month),
		MaxTokens:  2500,
		Constraint: billingConstraint(),
	}
	res, err := s.orch.Run(ctx, req, func(context.Context) (json.RawMessage, error) {
		return json.Marshal(s.fb.Billing(p, month))
	})
	if err != nil {
		return nil, nil, err
	}

	var records []billing.Record
	if err := json.Unmarshal(res.Payload, &records); err != nil {
		return nil, nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	return NormalizeToBudget(records, p), res, nil
}

func (s *Service) runRecommendations(ctx context.Context, p profile.ProjectProfile, summary report.FinancialSummary) ([]report.Recommendation, *generation.Result, error) {
	req := generation.Request{
		Stage:      generation.StageAnalysis,
		Prompt:     buildAnalysisPrompt(p, summary),
		MaxTokens:  3000,
		Constraint: recommendationConstraint(),
	}
	res, err := s.orch.Run(ctx, req, func(context.Context) (json.RawMessage, error) {
		return json.Marshal(s.fb.Recommendations(p, summary))
	})
	if err != nil {
		return nil, nil, err
	}

	var recs []report.Recommendation
	if err := json.Unmarshal(res.Payload, &recs); err != nil {
		return nil, nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	return recs, res, nil
}

// sanitizeProfile grounds the model's profile in the source text: an
// explicit budget in the description always wins, missing values fall back
// to deterministic estimates, and the summary comes from the text itself.
func sanitizeProfile(p profile.ProjectProfile, description string) profile.ProjectProfile {
	if v, ok := explicitBudget(description); ok {
		p.Budget = v
	} else if p.Budget <= 0 {
		p.Budget = ExtractBudget(description)
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = deriveName(description)
	}
	if strings.TrimSpace(p.Description) == "" {
		p.Description = FirstSentence(description)
	}
	if p.TechStack == nil {
		p.TechStack = map[string]string{}
	}
	if p.NonFunctionalRequirements == nil {
		p.NonFunctionalRequirements = []string{}
	}
	return p
}
