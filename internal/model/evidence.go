package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TimestampLayout is the second-resolution layout used for evidence timestamps.
const TimestampLayout = "20060102_150405"

type EvidenceStatus string

const (
	EvidenceStatusPending  EvidenceStatus = "pending"
	EvidenceStatusApproved EvidenceStatus = "approved"
	EvidenceStatusRejected EvidenceStatus = "rejected"
)

func (s EvidenceStatus) Valid() bool {
	switch s {
	case EvidenceStatusPending, EvidenceStatusApproved, EvidenceStatusRejected:
		return true
	}
	return false
}

// UnmarshalJSON rejects statuses outside the closed set, so a hand-edited
// document fails to load instead of skewing the counts.
func (s *EvidenceStatus) UnmarshalJSON(data []byte) error {
	var raw string
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	status := EvidenceStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("unknown evidence status %q", raw)
	}
	*s = status
	return nil
}

type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// ParseReviewAction maps a client-supplied action onto the closed set of
// review actions.
func ParseReviewAction(s string) (ReviewAction, error) {
	switch a := ReviewAction(strings.TrimSpace(s)); a {
	case ReviewActionApprove, ReviewActionReject:
		return a, nil
	}
	return "", fmt.Errorf("unknown review action %q", s)
}

// Status is the status an evidence record moves to under this action.
func (a ReviewAction) Status() EvidenceStatus {
	if a == ReviewActionApprove {
		return EvidenceStatusApproved
	}
	return EvidenceStatusRejected
}

type Evidence struct {
	ID         string         `json:"id" db:"id"`
	MaterialID int64          `json:"material_id" db:"material_id"`
	Screenshot string         `json:"screenshot" db:"screenshot"`
	URL        string         `json:"url" db:"url"`
	Comment    string         `json:"comment" db:"comment"`
	Status     EvidenceStatus `json:"status" db:"status"`
	QRPath     string         `json:"qr_path,omitempty" db:"qr_path"` // Retrieval path, set only once approved
	QRFile     string         `json:"qr_file,omitempty" db:"qr_file"` // Stored QR image name, set with QRPath
	Timestamp  string         `json:"timestamp" db:"timestamp"`
}

func (e *Evidence) IsPending() bool {
	return e.Status == EvidenceStatusPending
}

// StatusCounts aggregates evidence records by status.
type StatusCounts struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

func CountByStatus(evidence []*Evidence) StatusCounts {
	counts := StatusCounts{Total: len(evidence)}
	for _, e := range evidence {
		switch e.Status {
		case EvidenceStatusPending:
			counts.Pending++
		case EvidenceStatusApproved:
			counts.Approved++
		case EvidenceStatusRejected:
			counts.Rejected++
		}
	}
	return counts
}
