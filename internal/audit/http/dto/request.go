package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/allisson/occam/internal/audit/domain"
)

// ParseEventTypes splits a comma-separated list of event types, rejecting unknown values.
func ParseEventTypes(raw string) ([]domain.EventType, error) {
	var eventTypes []domain.EventType
	for _, part := range splitList(raw) {
		eventType := domain.EventType(part)
		if !eventType.Valid() {
			return nil, fmt.Errorf("invalid event_type: %s", part)
		}
		eventTypes = append(eventTypes, eventType)
	}
	return eventTypes, nil
}

// ParseSeverities splits a comma-separated list of severities, rejecting unknown values.
func ParseSeverities(raw string) ([]domain.Severity, error) {
	var severities []domain.Severity
	for _, part := range splitList(raw) {
		severity := domain.Severity(part)
		if !severity.Valid() {
			return nil, fmt.Errorf("invalid severity: %s", part)
		}
		severities = append(severities, severity)
	}
	return severities, nil
}

// ParseTime parses an optional RFC3339 timestamp and converts it to UTC.
func ParseTime(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)", name)
	}
	utc := parsed.UTC()
	return &utc, nil
}

func splitList(raw string) []string {
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
