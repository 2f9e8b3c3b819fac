package domain

import (
	"sort"
	"time"
)

// DocumentValidation is the latest validation outcome of one document.
type DocumentValidation struct {
	DocumentID  string
	Verified    bool
	AgentID     string
	ValidatedAt time.Time
}

// LatestValidations reduces validation records to the latest outcome per
// document, ordered by document id. Records of other event types and records
// without a document are ignored.
func LatestValidations(records []*Record) []DocumentValidation {
	latest := make(map[string]*Record)
	for _, record := range records {
		if record.EventType != EventTypeValidation || record.DocumentID == "" {
			continue
		}
		current, ok := latest[record.DocumentID]
		if !ok || record.Sequence > current.Sequence {
			latest[record.DocumentID] = record
		}
	}

	validations := make([]DocumentValidation, 0, len(latest))
	for documentID, record := range latest {
		validations = append(validations, DocumentValidation{
			DocumentID:  documentID,
			Verified:    record.Success,
			AgentID:     record.AgentID,
			ValidatedAt: record.Timestamp,
		})
	}
	sort.Slice(validations, func(i, j int) bool {
		return validations[i].DocumentID < validations[j].DocumentID
	})
	return validations
}

// ComplianceAccuracy returns verified documents / total documents * 100, or 0
// when there are no documents.
func ComplianceAccuracy(validations []DocumentValidation) (accuracy float64, verified int) {
	if len(validations) == 0 {
		return 0, 0
	}
	for _, v := range validations {
		if v.Verified {
			verified++
		}
	}
	return float64(verified) / float64(len(validations)) * 100, verified
}
