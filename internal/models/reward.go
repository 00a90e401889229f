package models

import "time"

// RewardStatus is the claim state of a reward.
type RewardStatus string

const (
	RewardPending          RewardStatus = "PENDING"
	RewardPendingDetective RewardStatus = "PENDING_DETECTIVE"
	RewardApproved         RewardStatus = "APPROVED"
	RewardReadyForPayment  RewardStatus = "READY_FOR_PAYMENT"
	RewardPaid             RewardStatus = "PAID"
	RewardRejected         RewardStatus = "REJECTED"
	RewardCancelled        RewardStatus = "CANCELLED"
)

// CodeVisible reports whether the claim code may be shown to callers.
func (s RewardStatus) CodeVisible() bool {
	return s == RewardReadyForPayment || s == RewardPaid
}

// RewardType classifies why a reward is paid.
type RewardType string

const (
	RewardInformationProvided RewardType = "INFORMATION_PROVIDED"
	RewardWitnessTestimony    RewardType = "WITNESS_TESTIMONY"
	RewardCaseSolving         RewardType = "CASE_SOLVING"
	RewardOther               RewardType = "OTHER"
)

// Reward is a payout to an informant or officer.
type Reward struct {
	ID               uint         `json:"id" db:"id"`
	RecipientID      uint         `json:"recipient_id" db:"recipient_id"`
	CaseID           *uint        `json:"case_id,omitempty" db:"case_id"`
	SuspectID        *uint        `json:"suspect_id,omitempty" db:"suspect_id"`
	RewardCode       string       `json:"reward_code,omitempty" db:"reward_code"`
	RewardType       RewardType   `json:"reward_type" db:"reward_type"`
	Amount           int64        `json:"amount" db:"amount"`
	Status           RewardStatus `json:"status" db:"status"`
	Information      string       `json:"information" db:"information"`
	IsCivilianReward bool         `json:"is_civilian_reward" db:"is_civilian_reward"`

	OfficerReviewedBy *uint      `json:"officer_reviewed_by,omitempty" db:"officer_reviewed_by"`
	OfficerReviewedAt *time.Time `json:"officer_reviewed_at,omitempty" db:"officer_reviewed_at"`
	OfficerMessage    string     `json:"officer_message,omitempty" db:"officer_message"`

	DetectiveReviewedBy *uint      `json:"detective_reviewed_by,omitempty" db:"detective_reviewed_by"`
	DetectiveReviewedAt *time.Time `json:"detective_reviewed_at,omitempty" db:"detective_reviewed_at"`
	DetectiveMessage    string     `json:"detective_message,omitempty" db:"detective_message"`

	RejectionReason  string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ClaimedAtStation string     `json:"claimed_at_station,omitempty" db:"claimed_at_station"`
	ClaimedAt        *time.Time `json:"claimed_at,omitempty" db:"claimed_at"`
	ClaimedBy        *uint      `json:"claimed_by,omitempty" db:"claimed_by"`
	IdentityVerified bool       `json:"identity_verified" db:"identity_verified"`
	PaymentRef       string     `json:"payment_reference,omitempty" db:"payment_reference"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Redacted returns a copy with the claim code hidden unless the reward is
// ready for payment or paid.
func (r Reward) Redacted() Reward {
	if !r.Status.CodeVisible() {
		r.RewardCode = ""
	}
	return r
}

// Notification is a polled, addressed message about a case.
type Notification struct {
	ID          uint       `json:"id" db:"id"`
	CaseID      *uint      `json:"case_id,omitempty" db:"case_id"`
	RecipientID uint       `json:"recipient_id" db:"recipient_id"`
	Ref         Ref        `json:"ref"`
	Message     string     `json:"message" db:"message"`
	ReadAt      *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// IsRead reports whether the recipient has read the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// TrialStatus is the state of a trial.
type TrialStatus string

const (
	TrialScheduled  TrialStatus = "SCHEDULED"
	TrialInProgress TrialStatus = "IN_PROGRESS"
	TrialCompleted  TrialStatus = "COMPLETED"
	TrialPostponed  TrialStatus = "POSTPONED"
)

// Verdict is the outcome recorded by the judge.
type Verdict string

const (
	VerdictGuilty   Verdict = "GUILTY"
	VerdictInnocent Verdict = "INNOCENT"
)

// Trial is the court record of a case.
type Trial struct {
	ID            uint        `json:"id" db:"id"`
	CaseID        uint        `json:"case_id" db:"case_id"`
	JudgeID       *uint       `json:"judge_id,omitempty" db:"judge_id"`
	Status        TrialStatus `json:"status" db:"status"`
	ScheduledDate time.Time   `json:"scheduled_date" db:"scheduled_date"`
	Verdict       *Verdict    `json:"verdict,omitempty" db:"verdict"`
	Punishment    string      `json:"punishment" db:"punishment"`
	JudgeNotes    string      `json:"judge_notes" db:"judge_notes"`
	VerdictAt     *time.Time  `json:"verdict_at,omitempty" db:"verdict_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}
