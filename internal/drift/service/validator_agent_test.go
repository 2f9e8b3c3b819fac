package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentDomain "github.com/allisson/occam/internal/agent/domain"
	"github.com/allisson/occam/internal/drift/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

type stubVerifier struct {
	documentID string
	clauseIDs  []string
	err        error
}

func (s *stubVerifier) VerifyClauses(ctx context.Context, documentID string, clauseIDs []string) error {
	s.documentID = documentID
	s.clauseIDs = clauseIDs
	return s.err
}

func TestValidatorAgent_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("Verified", func(t *testing.T) {
		verifier := &stubVerifier{}
		agent := NewValidatorAgent(verifier)

		result, err := agent.Execute(ctx, &agentDomain.StepContext{
			DocumentID: "doc-1",
			Data:       map[string]any{"clause_ids": []string{"c-1", "c-2"}},
		})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "verified", result.Status)
		assert.Equal(t, 2, result.Output["verified_clauses"])
		assert.Equal(t, "doc-1", verifier.documentID)
		assert.Equal(t, []string{"c-1", "c-2"}, verifier.clauseIDs)
	})

	t.Run("DecodedJSONList", func(t *testing.T) {
		verifier := &stubVerifier{}
		agent := NewValidatorAgent(verifier)

		_, err := agent.Execute(ctx, &agentDomain.StepContext{
			DocumentID: "doc-1",
			Data:       map[string]any{"clause_ids": []any{"c-1"}},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"c-1"}, verifier.clauseIDs)
	})

	t.Run("NoClauses", func(t *testing.T) {
		verifier := &stubVerifier{}
		agent := NewValidatorAgent(verifier)

		result, err := agent.Execute(ctx, &agentDomain.StepContext{DocumentID: "doc-1"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Empty(t, verifier.clauseIDs)
	})

	t.Run("Blocked", func(t *testing.T) {
		agent := NewValidatorAgent(&stubVerifier{err: domain.ErrDriftThresholdExceeded})

		result, err := agent.Execute(ctx, &agentDomain.StepContext{
			DocumentID: "doc-1",
			Data:       map[string]any{"clause_ids": []string{"c-1"}},
		})

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "blocked", result.Status)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("StorageError", func(t *testing.T) {
		agent := NewValidatorAgent(&stubVerifier{err: errors.New("connection refused")})

		result, err := agent.Execute(ctx, &agentDomain.StepContext{
			DocumentID: "doc-1",
			Data:       map[string]any{"clause_ids": []string{"c-1"}},
		})

		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("InvalidClauseIDs", func(t *testing.T) {
		agent := NewValidatorAgent(&stubVerifier{})

		_, err := agent.Execute(ctx, &agentDomain.StepContext{
			Data: map[string]any{"clause_ids": []any{"c-1", 42}},
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

		_, err = agent.Execute(ctx, &agentDomain.StepContext{
			Data: map[string]any{"clause_ids": "c-1"},
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestValidatorAgent_Identity(t *testing.T) {
	agent := NewValidatorAgent(&stubVerifier{})

	assert.Equal(t, ValidatorAgentID, agent.ID())
	assert.Equal(t, agentDomain.KindCompliance, agent.Kind())
	assert.True(t, agent.Kind().Valid())
}
