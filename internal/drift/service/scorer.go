// Package service provides the default similarity scorer and the clause validator agent used for drift detection.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"unicode"
)

// Scorer computes the similarity of a clause's current content with its source, in [0, 1].
type Scorer interface {
	Score(ctx context.Context, current, source string) (float64, error)
}

// TermFrequencyScorer is a cosine similarity over term-frequency vectors. It
// stands in for an embedding service when none is configured.
type TermFrequencyScorer struct{}

// NewTermFrequencyScorer creates the default scorer.
func NewTermFrequencyScorer() *TermFrequencyScorer {
	return &TermFrequencyScorer{}
}

// Score returns 1 for identical token multisets, 0 for disjoint ones. Two empty
// texts are identical; one empty text scores 0.
func (s *TermFrequencyScorer) Score(ctx context.Context, current, source string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	a := termFrequencies(current)
	b := termFrequencies(source)
	if len(a) == 0 && len(b) == 0 {
		return 1, nil
	}
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}

	var dot, normA, normB float64
	for term, countA := range a {
		normA += countA * countA
		if countB, ok := b[term]; ok {
			dot += countA * countB
		}
	}
	for _, countB := range b {
		normB += countB * countB
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Min(1, math.Max(0, score)), nil
}

func termFrequencies(text string) map[string]float64 {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	frequencies := make(map[string]float64, len(terms))
	for _, term := range terms {
		frequencies[term]++
	}
	return frequencies
}

// ContentHash is the hex SHA-256 of source content, used as the authority's content hash.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
