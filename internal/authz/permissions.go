package authz

// Permission is an action-permission code granted to roles.
type Permission string

const (
	PermCaseCreate          Permission = "case.create"
	PermCaseList            Permission = "case.list"
	PermCaseRetrieve        Permission = "case.retrieve"
	PermCaseUpdate          Permission = "case.update"
	PermCaseApprove         Permission = "case.approve"
	PermCaseAssignDetective Permission = "case.assign_detective"

	PermComplaintCreate        Permission = "complaint.create"
	PermComplaintList          Permission = "complaint.list"
	PermComplaintReviewCadet   Permission = "complaint.review_cadet"
	PermComplaintReviewOfficer Permission = "complaint.review_officer"

	PermEvidenceAdd            Permission = "evidence.add"
	PermEvidenceCoronerApprove Permission = "evidence.coroner_approve"

	PermRewardCreate          Permission = "reward.create"
	PermRewardReviewOfficer   Permission = "reward.review_officer"
	PermRewardReviewDetective Permission = "reward.review_detective"
	PermRewardLookup          Permission = "reward.lookup"

	PermDetectiveBoard Permission = "resolution.detective_board"
	PermSergeantReview Permission = "resolution.sergeant_review"

	PermManageRoles Permission = "accounts.manage_roles"
	PermManageUsers Permission = "accounts.manage_users"
)

// AllPermissions lists every permission code with a short description.
var AllPermissions = map[Permission]string{
	PermCaseCreate:             "Create cases directly",
	PermCaseList:               "List visible cases",
	PermCaseRetrieve:           "View case details",
	PermCaseUpdate:             "Update case details and team",
	PermCaseApprove:            "Approve or reject pending cases",
	PermCaseAssignDetective:    "Assign the investigating detective",
	PermComplaintCreate:        "File complaints",
	PermComplaintList:          "List complaints in the review queues",
	PermComplaintReviewCadet:   "Screen complaints as cadet",
	PermComplaintReviewOfficer: "Screen complaints as officer",
	PermEvidenceAdd:            "Record evidence",
	PermEvidenceCoronerApprove: "Record lab results and approve biological evidence",
	PermRewardCreate:           "Submit information for a reward",
	PermRewardReviewOfficer:    "Triage reward submissions",
	PermRewardReviewDetective:  "Approve reward submissions for own cases",
	PermRewardLookup:           "Look up rewards by national id and code",
	PermDetectiveBoard:         "Edit the detective board",
	PermSergeantReview:         "Review detective reports",
	PermManageRoles:            "Assign and remove roles",
	PermManageUsers:            "Manage user accounts",
}

// Valid reports whether p is a known permission code.
func (p Permission) Valid() bool {
	_, ok := AllPermissions[p]
	return ok
}
