package models

import "time"

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	CaseOpen               CaseStatus = "OPEN"
	CaseUnderInvestigation CaseStatus = "UNDER_INVESTIGATION"
	CaseSolved             CaseStatus = "SOLVED"
	CaseClosed             CaseStatus = "CLOSED"
	CaseArchived           CaseStatus = "ARCHIVED"
)

// IsActive reports whether the case still counts towards pursuit ranking.
func (s CaseStatus) IsActive() bool {
	return s == CaseOpen || s == CaseUnderInvestigation
}

// Severity is the ordinal crime tier of a case, lowest first.
type Severity string

const (
	SeverityLevel3   Severity = "LEVEL3"
	SeverityLevel2   Severity = "LEVEL2"
	SeverityLevel1   Severity = "LEVEL1"
	SeverityCritical Severity = "CRITICAL"
)

// MaxSeverity is the top tier: it gates chief approval and bail release.
const MaxSeverity = SeverityCritical

// Degree maps a tier to its ordinal 1..4. Unknown tiers map to 0.
func (s Severity) Degree() int {
	switch s {
	case SeverityLevel3:
		return 1
	case SeverityLevel2:
		return 2
	case SeverityLevel1:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the four tiers.
func (s Severity) Valid() bool {
	return s.Degree() > 0
}

// Case is an investigation file.
type Case struct {
	ID                  uint       `json:"id" db:"id"`
	CaseNumber          string     `json:"case_number" db:"case_number"`
	Title               string     `json:"title" db:"title"`
	Description         string     `json:"description" db:"description"`
	Severity            Severity   `json:"severity" db:"severity"`
	Status              CaseStatus `json:"status" db:"status"`
	IncidentDate        *time.Time `json:"incident_date,omitempty" db:"incident_date"`
	IncidentLocation    string     `json:"incident_location" db:"incident_location"`
	CreatedBy           *uint      `json:"created_by,omitempty" db:"created_by"`
	AssignedDetectiveID *uint      `json:"assigned_detective_id,omitempty" db:"assigned_detective_id"`
	Notes               string     `json:"notes" db:"notes"`
	SolvedAt            *time.Time `json:"solved_at,omitempty" db:"solved_at"`
	ClosedAt            *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
	TeamMemberIDs       []uint     `json:"team_member_ids"`
}

// IsAssignedTo reports whether userID is the case's investigator.
func (c *Case) IsAssignedTo(userID uint) bool {
	return c.AssignedDetectiveID != nil && *c.AssignedDetectiveID == userID
}

// HasTeamMember reports whether userID is on the case team.
func (c *Case) HasTeamMember(userID uint) bool {
	for _, id := range c.TeamMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
