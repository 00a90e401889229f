package models

import "time"

// ReportStatus is the state of a detective report.
type ReportStatus string

const (
	ReportPendingSergeant ReportStatus = "PENDING_SERGEANT"
	ReportApproved        ReportStatus = "APPROVED"
	ReportDisagreement    ReportStatus = "DISAGREEMENT"
)

// DetectiveReport is a detective's proposal of suspects for a case, reviewed
// by a sergeant.
type DetectiveReport struct {
	ID               uint              `json:"id" db:"id"`
	CaseID           uint              `json:"case_id" db:"case_id"`
	DetectiveID      uint              `json:"detective_id" db:"detective_id"`
	Status           ReportStatus      `json:"status" db:"status"`
	DetectiveMessage string            `json:"detective_message" db:"detective_message"`
	SergeantID       *uint             `json:"sergeant_id,omitempty" db:"sergeant_id"`
	SergeantMessage  string            `json:"sergeant_message" db:"sergeant_message"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
	Suspects         []ReportedSuspect `json:"reported_suspects"`
	Materialized     []SuspectCaseLink `json:"materialized,omitempty" db:"-"`
}

// ReportedSuspect is an evidence reference flagged as pointing at a suspect.
type ReportedSuspect struct {
	ID       uint   `json:"id" db:"id"`
	ReportID uint   `json:"report_id" db:"report_id"`
	Ref      Ref    `json:"ref"`
	Note     string `json:"note,omitempty" db:"note"`
}
