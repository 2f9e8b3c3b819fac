package service

import (
	"context"

	agentDomain "github.com/allisson/occam/internal/agent/domain"
	"github.com/allisson/occam/internal/drift/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

// ValidatorAgentID is the agent id workflows use to re-check clauses for drift.
const ValidatorAgentID = "drift-validator"

// ClauseVerifier scores the stored clauses of a document again.
type ClauseVerifier interface {
	VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error
}

// ValidatorAgent is a compliance agent that fails when any clause listed in
// the step data ("clause_ids") is blocked by drift.
type ValidatorAgent struct {
	verifier ClauseVerifier
}

// NewValidatorAgent creates the drift validator agent.
func NewValidatorAgent(verifier ClauseVerifier) *ValidatorAgent {
	return &ValidatorAgent{verifier: verifier}
}

func (a *ValidatorAgent) ID() string             { return ValidatorAgentID }
func (a *ValidatorAgent) Name() string           { return "Drift Validator" }
func (a *ValidatorAgent) Kind() agentDomain.Kind { return agentDomain.KindCompliance }

// Execute verifies the clauses. A blocked clause is a failed result, other
// failures are errors.
func (a *ValidatorAgent) Execute(ctx context.Context, step *agentDomain.StepContext) (*agentDomain.Result, error) {
	clauseIDs, err := clauseIDsFrom(step.Data)
	if err != nil {
		return nil, err
	}

	err = a.verifier.VerifyClauses(ctx, step.DocumentID, clauseIDs)
	switch {
	case err == nil:
		return &agentDomain.Result{
			Success: true,
			Status:  "verified",
			Output: map[string]any{
				"verified_clauses": len(clauseIDs),
			},
		}, nil
	case apperrors.Is(err, domain.ErrDriftThresholdExceeded):
		return &agentDomain.Result{
			Success: false,
			Status:  "blocked",
			Error:   err.Error(),
		}, nil
	default:
		return nil, err
	}
}

// clauseIDsFrom accepts []string and the []any produced by JSON decoding.
func clauseIDsFrom(data map[string]any) ([]string, error) {
	switch ids := data["clause_ids"].(type) {
	case nil:
		return nil, nil
	case []string:
		return ids, nil
	case []any:
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			s, ok := id.(string)
			if !ok {
				return nil, apperrors.Wrapf(domain.ErrInvalidClause, "clause id %v is not a string", id)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperrors.Wrap(domain.ErrInvalidClause, "clause_ids must be a list of strings")
	}
}
