package models

import "time"

// SuspectStatus is the custody state of a suspect.
type SuspectStatus string

const (
	SuspectIdentified         SuspectStatus = "IDENTIFIED"
	SuspectUnderInvestigation SuspectStatus = "UNDER_INVESTIGATION"
	SuspectDetained           SuspectStatus = "DETAINED"
	SuspectReleased           SuspectStatus = "RELEASED"
	SuspectCharged            SuspectStatus = "CHARGED"
	SuspectConvicted          SuspectStatus = "CONVICTED"
	SuspectAcquitted          SuspectStatus = "ACQUITTED"
	SuspectFugitive           SuspectStatus = "FUGITIVE"
)

// Suspect is a person of interest, possibly linked to several cases.
type Suspect struct {
	ID               uint          `json:"id" db:"id"`
	ExternalID       string        `json:"external_id" db:"external_id"`
	FirstName        string        `json:"first_name" db:"first_name"`
	LastName         string        `json:"last_name" db:"last_name"`
	NationalID       string        `json:"national_id,omitempty" db:"national_id"`
	Status           SuspectStatus `json:"status" db:"status"`
	IsWanted         bool          `json:"is_wanted" db:"is_wanted"`
	PursuitStartDate *time.Time    `json:"pursuit_start_date,omitempty" db:"pursuit_start_date"`
	DetentionDate    *time.Time    `json:"detention_date,omitempty" db:"detention_date"`
	ReleaseDate      *time.Time    `json:"release_date,omitempty" db:"release_date"`
	PhotoRef         string        `json:"photo_ref,omitempty" db:"photo_ref"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name.
func (s *Suspect) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// SuspectCaseLink pairs a suspect with a case and carries the guilt
// assessment escalation for that pairing.
type SuspectCaseLink struct {
	ID        uint `json:"id" db:"id"`
	SuspectID uint `json:"suspect_id" db:"suspect_id"`
	CaseID    uint `json:"case_id" db:"case_id"`

	DetectiveScore    *int       `json:"detective_score,omitempty" db:"detective_score"`
	DetectiveID       *uint      `json:"detective_id,omitempty" db:"detective_id"`
	DetectiveScoredAt *time.Time `json:"detective_scored_at,omitempty" db:"detective_scored_at"`

	SergeantScore    *int       `json:"sergeant_score,omitempty" db:"sergeant_score"`
	SergeantID       *uint      `json:"sergeant_id,omitempty" db:"sergeant_id"`
	SergeantScoredAt *time.Time `json:"sergeant_scored_at,omitempty" db:"sergeant_scored_at"`

	CaptainOpinion   string     `json:"captain_opinion" db:"captain_opinion"`
	CaptainID        *uint      `json:"captain_id,omitempty" db:"captain_id"`
	CaptainOpinionAt *time.Time `json:"captain_opinion_at,omitempty" db:"captain_opinion_at"`

	// ChiefApproved is unset until the chief decides; true approves, false rejects.
	ChiefApproved  *bool      `json:"chief_approved,omitempty" db:"chief_approved"`
	ChiefID        *uint      `json:"chief_id,omitempty" db:"chief_id"`
	ChiefDecidedAt *time.Time `json:"chief_decided_at,omitempty" db:"chief_decided_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Suspect *Suspect `json:"suspect,omitempty" db:"-"`
}

// HasBothAssessments reports whether detective and sergeant have both scored.
func (l *SuspectCaseLink) HasBothAssessments() bool {
	return l.DetectiveScore != nil && l.SergeantScore != nil
}

// AverageGuiltScore is the mean of both scores, or nil until both exist.
func (l *SuspectCaseLink) AverageGuiltScore() *float64 {
	if !l.HasBothAssessments() {
		return nil
	}
	avg := float64(*l.DetectiveScore+*l.SergeantScore) / 2
	return &avg
}

// BailFine is the release record of a detained suspect.
type BailFine struct {
	ID        uint `json:"id" db:"id"`
	SuspectID uint `json:"suspect_id" db:"suspect_id"`

	BailAmount     *int64     `json:"bail_amount,omitempty" db:"bail_amount"`
	BailPaid       bool       `json:"bail_paid" db:"bail_paid"`
	BailPaidAt     *time.Time `json:"bail_paid_at,omitempty" db:"bail_paid_at"`
	BailPaymentRef string     `json:"bail_payment_ref,omitempty" db:"bail_payment_ref"`

	FineAmount     *int64     `json:"fine_amount,omitempty" db:"fine_amount"`
	FinePaid       bool       `json:"fine_paid" db:"fine_paid"`
	FinePaidAt     *time.Time `json:"fine_paid_at,omitempty" db:"fine_paid_at"`
	FinePaymentRef string     `json:"fine_payment_ref,omitempty" db:"fine_payment_ref"`

	SupervisorApproved bool       `json:"supervisor_approved" db:"supervisor_approved"`
	ApprovedBy         *uint      `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	AmountSetBy        *uint      `json:"amount_set_by,omitempty" db:"amount_set_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PaymentKind selects the bail or the fine side of a BailFine.
type PaymentKind string

const (
	PaymentBail PaymentKind = "bail"
	PaymentFine PaymentKind = "fine"
)

// PursuitRanking is the derived most-wanted view of a suspect.
type PursuitRanking struct {
	Suspect     Suspect `json:"suspect"`
	DaysPursued int     `json:"days_pursued"`
	MaxDegree   int     `json:"max_degree"`
	Ranking     int64   `json:"ranking"`
	Reward      int64   `json:"reward"`
	Intensive   bool    `json:"is_intensive_pursuit"`
}
