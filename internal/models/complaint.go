package models

import "time"

// ComplaintStatus is the intake state of a citizen complaint.
type ComplaintStatus string

const (
	ComplaintPendingCadet          ComplaintStatus = "PENDING_CADET"
	ComplaintReturnedToComplainant ComplaintStatus = "RETURNED_TO_COMPLAINANT"
	ComplaintPendingOfficer        ComplaintStatus = "PENDING_OFFICER"
	ComplaintReturnedToCadet       ComplaintStatus = "RETURNED_TO_CADET"
	ComplaintApproved              ComplaintStatus = "APPROVED"
	ComplaintVoided                ComplaintStatus = "VOIDED"
)

// IsTerminal reports whether no further review can change the status.
func (s ComplaintStatus) IsTerminal() bool {
	return s == ComplaintApproved || s == ComplaintVoided
}

// Complaint is a citizen report travelling through cadet and officer screening.
type Complaint struct {
	ID                uint            `json:"id" db:"id"`
	ComplainantID     uint            `json:"complainant_id" db:"complainant_id"`
	CaseID            *uint           `json:"case_id,omitempty" db:"case_id"`
	Status            ComplaintStatus `json:"status" db:"status"`
	Title             string          `json:"title" db:"title"`
	Description       string          `json:"description" db:"description"`
	IncidentDate      time.Time       `json:"incident_date" db:"incident_date"`
	IncidentLocation  string          `json:"incident_location" db:"incident_location"`
	RejectionCount    int             `json:"rejection_count" db:"rejection_count"`
	CadetMessage      string          `json:"cadet_message" db:"cadet_message"`
	OfficerMessage    string          `json:"officer_message" db:"officer_message"`
	CadetReviewerID   *uint           `json:"cadet_reviewer_id,omitempty" db:"cadet_reviewer_id"`
	OfficerReviewerID *uint           `json:"officer_reviewer_id,omitempty" db:"officer_reviewer_id"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}
