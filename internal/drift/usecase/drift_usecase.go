package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	"github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/drift/service"
	apperrors "github.com/allisson/occam/internal/errors"
)

// Config holds the drift policy and analysis settings.
type Config struct {
	Threshold          float64
	WarningMargin      float64
	TrendEpsilon       float64
	MaxCriticalCases   int
	AutoReverification bool
}

type driftUseCase struct {
	config  Config
	policy  domain.Policy
	repo    CheckRepository
	scorer  Scorer
	trigger ReverificationTrigger
	audit   AuditRecorder
	logger  *slog.Logger
	clock   func() time.Time
}

// NewDriftUseCase creates the drift detector. trigger may be nil when blocking
// drift should not schedule re-verification.
func NewDriftUseCase(
	config Config,
	repo CheckRepository,
	scorer Scorer,
	trigger ReverificationTrigger,
	audit AuditRecorder,
	logger *slog.Logger,
) UseCase {
	return &driftUseCase{
		config:  config,
		policy:  domain.Policy{Threshold: config.Threshold, WarningMargin: config.WarningMargin},
		repo:    repo,
		scorer:  scorer,
		trigger: trigger,
		audit:   audit,
		logger:  logger,
		clock:   time.Now,
	}
}

func (d *driftUseCase) Evaluate(ctx context.Context, input domain.ClauseInput) (*domain.Check, error) {
	result, err := d.EvaluateBatch(ctx, []domain.ClauseInput{input})
	if err != nil {
		return nil, err
	}
	return result.Checks[0], nil
}

func (d *driftUseCase) EvaluateBatch(ctx context.Context, inputs []domain.ClauseInput) (*domain.BatchResult, error) {
	if len(inputs) == 0 {
		return nil, apperrors.Wrap(domain.ErrInvalidClause, "no clauses to evaluate")
	}

	checks := make([]*domain.Check, 0, len(inputs))
	for _, input := range inputs {
		check, err := d.score(ctx, input)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	result := &domain.BatchResult{Checks: checks}

	// The job is created before the checks are stored so that every check is
	// persisted once, with its final action.
	if blocked := result.Blocked(); len(blocked) > 0 && d.config.AutoReverification && d.trigger != nil {
		jobID, err := d.trigger.TriggerFromDrift(ctx, blocked)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to trigger re-verification")
		}
		for _, check := range blocked {
			check.Action = domain.ActionReverificationTriggered
			check.JobID = &jobID
		}
		result.JobID = &jobID
	}

	for _, check := range checks {
		if err := d.repo.Create(ctx, check); err != nil {
			return nil, apperrors.Wrap(err, "failed to store drift check")
		}
		if err := d.record(ctx, check); err != nil {
			return nil, err
		}
	}

	if d.logger != nil && len(result.Blocked()) > 0 {
		d.logger.Warn("drift detected",
			slog.Int("clauses", len(checks)),
			slog.Int("blocked", len(result.Blocked())),
		)
	}
	return result, nil
}

func (d *driftUseCase) score(ctx context.Context, input domain.ClauseInput) (*domain.Check, error) {
	if input.ClauseID == "" || input.DocumentID == "" {
		return nil, domain.ErrInvalidClause
	}

	score, err := d.scorer.Score(ctx, input.CurrentContent, input.SourceContent)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to score clause %s", input.ClauseID)
	}
	if score < 0 || score > 1 {
		return nil, apperrors.Wrapf(domain.ErrInvalidScore, "clause %s scored %f", input.ClauseID, score)
	}

	authority := input.Authority
	if authority.SourceContentHash == "" {
		authority.SourceContentHash = service.ContentHash(input.SourceContent)
	}
	if authority.Timestamp.IsZero() {
		authority.Timestamp = d.clock().UTC()
	}

	classification := d.policy.Classify(score)
	return &domain.Check{
		ID:         uuid.Must(uuid.NewV7()),
		ClauseID:   input.ClauseID,
		DocumentID: input.DocumentID,
		Score:      score,
		Threshold:  d.policy.Threshold,
		Blocked:    classification.Blocked,
		RiskLevel:  classification.RiskLevel,
		Reason:     classification.Reason,
		Authority:  authority,
		Action:     classification.Action,
		CheckedAt:  d.clock().UTC().Truncate(time.Microsecond),

		CurrentContent: input.CurrentContent,
		SourceContent:  input.SourceContent,
	}, nil
}

func (d *driftUseCase) record(ctx context.Context, check *domain.Check) error {
	eventType := auditDomain.EventTypeComplianceCheck
	if check.Action != domain.ActionNone {
		eventType = auditDomain.EventTypeDriftDetected
	}

	metadata := map[string]any{
		"check_id":            check.ID.String(),
		"score":               check.Score,
		"threshold":           check.Threshold,
		"risk_level":          string(check.RiskLevel),
		"action":              string(check.Action),
		"authority_id":        check.Authority.AuthorityID,
		"source_content_hash": check.Authority.SourceContentHash,
	}
	if check.JobID != nil {
		metadata["job_id"] = check.JobID.String()
	}

	event := &auditDomain.Event{
		EventType:       eventType,
		Severity:        severityFor(check.RiskLevel),
		DocumentID:      check.DocumentID,
		ClauseID:        check.ClauseID,
		Action:          "drift.evaluate",
		Details:         check.Reason,
		Metadata:        metadata,
		Success:         !check.Blocked,
		ConfidenceScore: &check.Score,
	}
	if check.Blocked {
		event.ErrorMessage = domain.ErrDriftThresholdExceeded.Error()
	}

	if _, err := d.audit.RecordEvent(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to record drift check")
	}
	return nil
}

func severityFor(risk domain.RiskLevel) auditDomain.Severity {
	switch risk {
	case domain.RiskCritical:
		return auditDomain.SeverityCritical
	case domain.RiskHigh:
		return auditDomain.SeverityError
	case domain.RiskLow, domain.RiskMedium:
		return auditDomain.SeverityWarning
	default:
		return auditDomain.SeverityInfo
	}
}

func (d *driftUseCase) Guard(check *domain.Check) error {
	if check != nil && check.Blocked {
		return apperrors.Wrap(
			domain.ErrDriftThresholdExceeded,
			fmt.Sprintf("clause %s of document %s", check.ClauseID, check.DocumentID),
		)
	}
	return nil
}

func (d *driftUseCase) VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error {
	for _, clauseID := range clauseIDs {
		latest, err := d.repo.LatestByClause(ctx, documentID, clauseID)
		if apperrors.Is(err, domain.ErrCheckNotFound) {
			continue
		}
		if err != nil {
			return apperrors.Wrap(err, "failed to load drift check")
		}

		check, err := d.rescore(ctx, latest)
		if err != nil {
			return err
		}
		if d.logger != nil {
			d.logger.Debug("clause re-scored",
				slog.String("document_id", documentID),
				slog.String("clause_id", clauseID),
				slog.Float64("previous_score", latest.Score),
				slog.Float64("score", check.Score),
				slog.Bool("blocked", check.Blocked),
			)
		}
		if err := d.Guard(check); err != nil {
			return err
		}
	}
	return nil
}

// rescore scores the stored texts of latest again under the current policy.
// Checks stored without texts keep their recorded outcome.
func (d *driftUseCase) rescore(ctx context.Context, latest *domain.Check) (*domain.Check, error) {
	if latest.CurrentContent == "" && latest.SourceContent == "" {
		return latest, nil
	}
	return d.score(ctx, domain.ClauseInput{
		ClauseID:       latest.ClauseID,
		DocumentID:     latest.DocumentID,
		CurrentContent: latest.CurrentContent,
		SourceContent:  latest.SourceContent,
		Authority:      latest.Authority,
	})
}

func (d *driftUseCase) Analyze(ctx context.Context, start, end time.Time) (*domain.Analysis, error) {
	if !end.After(start) {
		return nil, domain.ErrInvalidPeriod
	}

	current, err := d.repo.ListByPeriod(ctx, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list drift checks")
	}

	previousStart := start.Add(-end.Sub(start))
	previous, err := d.repo.ListByPeriod(ctx, previousStart, start)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list previous drift checks")
	}

	return domain.Analyze(current, previous, start, end, domain.AnalysisOptions{
		TrendEpsilon:     d.config.TrendEpsilon,
		MaxCriticalCases: d.config.MaxCriticalCases,
	}), nil
}
