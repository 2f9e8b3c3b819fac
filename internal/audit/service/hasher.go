// Package service provides the cryptographic primitives of the audit chain.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/hkdf"

	"github.com/allisson/occam/internal/audit/domain"
)

// Hasher computes the CurrentHash of an audit record.
type Hasher interface {
	Hash(record *domain.Record) (string, error)
}

// hashPayload is the canonical view of a record: every field except CurrentHash.
type hashPayload struct {
	ID              string         `json:"id"`
	Sequence        int64          `json:"sequence"`
	Timestamp       string         `json:"timestamp"`
	EventType       string         `json:"event_type"`
	Severity        string         `json:"severity"`
	AgentID         string         `json:"agent_id"`
	UserID          string         `json:"user_id"`
	DocumentID      string         `json:"document_id"`
	ClauseID        string         `json:"clause_id"`
	Action          string         `json:"action"`
	Details         string         `json:"details"`
	Metadata        map[string]any `json:"metadata"`
	PreviousHash    string         `json:"previous_hash"`
	Success         bool           `json:"success"`
	LatencyMs       int64          `json:"latency_ms"`
	ConfidenceScore *float64       `json:"confidence_score"`
	ErrorMessage    string         `json:"error_message"`
}

type chainHasher struct {
	newHash func() hash.Hash
}

// NewSHA256Hasher hashes records with plain SHA-256.
func NewSHA256Hasher() Hasher {
	return &chainHasher{newHash: sha256.New}
}

// NewHMACHasher hashes records with HMAC-SHA256. The MAC key is derived from
// secret with HKDF-SHA256 so the configured secret is never used directly.
func NewHMACHasher(secret []byte) (Hasher, error) {
	key, err := deriveChainKey(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive chain key: %w", err)
	}
	return &chainHasher{
		newHash: func() hash.Hash { return hmac.New(sha256.New, key) },
	}, nil
}

func deriveChainKey(secret []byte) ([]byte, error) {
	info := []byte("audit-chain-hmac-v1")
	kdf := hkdf.New(sha256.New, secret, nil, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Hash returns hex(H(JCS(record minus CurrentHash) || PreviousHash)).
func (h *chainHasher) Hash(record *domain.Record) (string, error) {
	canonical, err := Canonicalize(record)
	if err != nil {
		return "", err
	}

	digest := h.newHash()
	digest.Write(canonical)
	digest.Write([]byte(record.PreviousHash))
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Canonicalize renders a record, without its CurrentHash, as RFC 8785 canonical JSON.
func Canonicalize(record *domain.Record) ([]byte, error) {
	payload := hashPayload{
		ID:              record.ID.String(),
		Sequence:        record.Sequence,
		Timestamp:       record.Timestamp.UTC().Format(time.RFC3339Nano),
		EventType:       string(record.EventType),
		Severity:        string(record.Severity),
		AgentID:         record.AgentID,
		UserID:          record.UserID,
		DocumentID:      record.DocumentID,
		ClauseID:        record.ClauseID,
		Action:          record.Action,
		Details:         record.Details,
		Metadata:        record.Metadata,
		PreviousHash:    record.PreviousHash,
		Success:         record.Success,
		LatencyMs:       record.LatencyMs,
		ConfidenceScore: record.ConfidenceScore,
		ErrorMessage:    record.ErrorMessage,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}
	return canonical, nil
}

// Verify recomputes the hash of record and compares it in constant time.
func Verify(h Hasher, record *domain.Record) (bool, error) {
	expected, err := h.Hash(record)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(record.CurrentHash)), nil
}
