package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precinct/internal/apperr"
	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/testutil"
	"precinct/internal/workflow"
)

type services struct {
	complaints    *service.ComplaintService
	cases         *service.CaseService
	evidence      *service.EvidenceService
	board         *service.BoardService
	reports       *service.ReportService
	suspects      *service.SuspectService
	bail          *service.BailService
	trials        *service.TrialService
	rewards       *service.RewardService
	notifications *service.NotificationService
	accounts      *service.AccountService
}

func newServices(f *testutil.Fixtures, env service.Env) *services {
	return &services{
		complaints:    service.NewComplaintService(env),
		cases:         service.NewCaseService(env),
		evidence:      service.NewEvidenceService(env),
		board:         service.NewBoardService(env),
		reports:       service.NewReportService(env),
		suspects:      service.NewSuspectService(env),
		bail:          service.NewBailService(env),
		trials:        service.NewTrialService(env),
		rewards:       service.NewRewardService(env),
		notifications: service.NewNotificationService(env),
		accounts:      service.NewAccountService(env, f.Auth),
	}
}

func complaintContent() workflow.ComplaintContent {
	return workflow.ComplaintContent{
		Title:            "Stolen bicycle",
		Description:      "My bicycle was taken from the rack outside the library.",
		IncidentDate:     time.Date(2026, 9, 30, 18, 0, 0, 0, time.UTC),
		IncidentLocation: "Library square",
	}
}

func TestWorkflowScenarios(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	f := testutil.SetupFixtures(t, tc.DB)
	ctx := context.Background()

	clock := time.Now().UTC().Truncate(time.Second)
	env := f.Env
	env.Now = func() time.Time { return clock }
	svc := newServices(f, env)

	t.Run("complaint approved by cadet and officer opens a case", func(t *testing.T) {
		c, err := svc.complaints.Submit(ctx, f.Citizen.ID, complaintContent())
		require.NoError(t, err)
		assert.Equal(t, models.ComplaintPendingCadet, c.Status)

		_, _, err = svc.complaints.CadetReview(ctx, f.Citizen.ID, c.ID, workflow.Approve, "")
		require.ErrorIs(t, err, apperr.ErrForbidden)

		_, _, err = svc.complaints.CadetReview(ctx, f.Cadet.ID, c.ID, workflow.Approve, "Looks complete")
		require.NoError(t, err)

		c, msg, err := svc.complaints.OfficerReview(ctx, f.Officer.ID, c.ID, workflow.Approve, "")
		require.NoError(t, err)
		assert.Equal(t, "Complaint approved and case created", msg)
		assert.Equal(t, models.ComplaintApproved, c.Status)
		require.NotNil(t, c.CaseID)

		cs, err := svc.cases.Get(ctx, f.Officer.ID, *c.CaseID)
		require.NoError(t, err)
		assert.Equal(t, models.CaseOpen, cs.Status)
		assert.Equal(t, models.SeverityLevel3, cs.Severity)
		assert.Regexp(t, `^C-\d{4}-\d{4}-[0-9A-F]{4}$`, cs.CaseNumber)
		require.NotNil(t, cs.CreatedBy)
		assert.Equal(t, f.Officer.ID, *cs.CreatedBy)

		inbox, err := svc.notifications.ListForRecipient(ctx, f.Citizen.ID, true)
		require.NoError(t, err)
		require.NotEmpty(t, inbox)
		assert.Equal(t, models.RefCase, inbox[0].Ref.Type)
	})

	t.Run("third cadet rejection voids the complaint", func(t *testing.T) {
		c, err := svc.complaints.Submit(ctx, f.Citizen.ID, complaintContent())
		require.NoError(t, err)

		for i := 1; i <= 3; i++ {
			c, _, err = svc.complaints.CadetReview(ctx, f.Cadet.ID, c.ID, workflow.Reject, "Missing details")
			require.NoError(t, err)
			assert.Equal(t, i, c.RejectionCount)
			if i < 3 {
				require.Equal(t, models.ComplaintReturnedToComplainant, c.Status)
				c, err = svc.complaints.Update(ctx, f.Citizen.ID, c.ID, complaintContent())
				require.NoError(t, err)
				require.Equal(t, models.ComplaintPendingCadet, c.Status)
			}
		}
		assert.Equal(t, models.ComplaintVoided, c.Status)

		_, _, err = svc.complaints.CadetReview(ctx, f.Cadet.ID, c.ID, workflow.Approve, "")
		require.ErrorIs(t, err, apperr.ErrPrecondition)
		_, _, err = svc.complaints.OfficerReview(ctx, f.Officer.ID, c.ID, workflow.Approve, "")
		require.ErrorIs(t, err, apperr.ErrPrecondition)
	})

	t.Run("only the complainant edits a returned complaint", func(t *testing.T) {
		c, err := svc.complaints.Submit(ctx, f.Citizen.ID, complaintContent())
		require.NoError(t, err)
		_, _, err = svc.complaints.CadetReview(ctx, f.Cadet.ID, c.ID, workflow.Reject, "Add the frame number")
		require.NoError(t, err)

		_, err = svc.complaints.Update(ctx, f.Officer.ID, c.ID, complaintContent())
		require.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("chief cases skip approval", func(t *testing.T) {
		in := workflow.CaseInput{Title: "Bank robbery", Severity: models.SeverityLevel1}

		chiefCase, err := svc.cases.Create(ctx, f.Chief.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.CaseUnderInvestigation, chiefCase.Status)

		officerCase, err := svc.cases.Create(ctx, f.Officer.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.CaseOpen, officerCase.Status)

		detectiveCase, err := svc.cases.Create(ctx, f.Detective.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.CaseOpen, detectiveCase.Status)

		_, err = svc.cases.Create(ctx, f.Cadet.ID, in)
		require.ErrorIs(t, err, apperr.ErrForbidden)

		_, _, err = svc.cases.Approve(ctx, f.Citizen.ID, officerCase.ID, workflow.Approve, "")
		require.ErrorIs(t, err, apperr.ErrForbidden)

		approved, msg, err := svc.cases.Approve(ctx, f.Sergeant.ID, officerCase.ID, workflow.Approve, "Confirmed")
		require.NoError(t, err)
		assert.Equal(t, "Case approved successfully", msg)
		assert.Equal(t, models.CaseUnderInvestigation, approved.Status)

		_, _, err = svc.cases.Approve(ctx, f.Sergeant.ID, officerCase.ID, workflow.Approve, "")
		require.ErrorIs(t, err, apperr.ErrPrecondition)
	})

	t.Run("tip on a case without detective cannot be forwarded", func(t *testing.T) {
		cs, err := svc.cases.Create(ctx, f.Officer.ID, workflow.CaseInput{Title: "Vandalism", Severity: models.SeverityLevel3})
		require.NoError(t, err)

		tip, err := svc.rewards.SubmitTip(ctx, f.Citizen.ID, &cs.ID, nil, "I saw who painted the wall.")
		require.NoError(t, err)

		_, _, err = svc.rewards.OfficerReview(ctx, f.Officer.ID, tip.ID, workflow.Approve, "")
		require.ErrorIs(t, err, apperr.ErrPrecondition)

		got, err := svc.rewards.Get(ctx, f.Citizen.ID, tip.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RewardPending, got.Status)
	})

	// The remaining steps share one critical case and the suspect its
	// detective report materializes.
	cs, err := svc.cases.Create(ctx, f.Chief.ID, workflow.CaseInput{Title: "Armed kidnapping", Severity: models.SeverityCritical})
	require.NoError(t, err)
	cs, err = svc.cases.AssignDetective(ctx, f.Captain.ID, cs.ID, f.Detective.ID)
	require.NoError(t, err)

	var suspect *models.Suspect

	t.Run("approved report materializes a named suspect", func(t *testing.T) {
		car, err := svc.evidence.Add(ctx, f.Officer.ID, cs.ID, &models.Vehicle{
			EvidenceBase: models.EvidenceBase{Title: "Getaway car"},
			Make:         "Ford",
			Model:        "Focus",
			Color:        "blue",
			LicensePlate: "PR-1234",
			OwnerName:    "John  Doe",
		})
		require.NoError(t, err)
		assert.Regexp(t, `^EV-\d{4}-[0-9A-F]{8}$`, car.Envelope().EvidenceNumber)

		inbox, err := svc.notifications.ListForRecipient(ctx, f.Detective.ID, true)
		require.NoError(t, err)
		require.NotEmpty(t, inbox)

		_, err = svc.reports.CreateReport(ctx, f.Officer.ID, cs.ID, "Owner of the car", []models.Ref{models.RefOf(car)})
		require.ErrorIs(t, err, apperr.ErrForbidden)

		rep, err := svc.reports.CreateReport(ctx, f.Detective.ID, cs.ID, "The car belongs to the kidnapper.", []models.Ref{models.RefOf(car)})
		require.NoError(t, err)
		assert.Equal(t, models.ReportPendingSergeant, rep.Status)

		rep, msg, err := svc.reports.SergeantReview(ctx, f.Sergeant.ID, rep.ID, workflow.Approve, "Agreed, arrest may begin.")
		require.NoError(t, err)
		assert.Equal(t, "Approved; arrest may begin.", msg)
		require.Len(t, rep.Materialized, 1)

		links, err := svc.suspects.ListCaseSuspects(ctx, f.Detective.ID, cs.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		suspect = links[0].Suspect
		require.NotNil(t, suspect)
		assert.Equal(t, "John", suspect.FirstName)
		assert.Equal(t, "Doe", suspect.LastName)
		assert.Equal(t, "name:john doe", suspect.ExternalID)
	})

	t.Run("report referencing foreign evidence leaves nothing behind", func(t *testing.T) {
		other, err := svc.cases.Create(ctx, f.Chief.ID, workflow.CaseInput{Title: "Fraud", Severity: models.SeverityLevel2})
		require.NoError(t, err)
		doc, err := svc.evidence.Add(ctx, f.Officer.ID, other.ID, &models.Document{
			EvidenceBase: models.EvidenceBase{Title: "Forged invoice"},
			Attributes:   map[string]string{"full_name": "Mary Major"},
		})
		require.NoError(t, err)

		before, err := svc.reports.ListReports(ctx, f.Detective.ID, cs.ID)
		require.NoError(t, err)

		_, err = svc.reports.CreateReport(ctx, f.Detective.ID, cs.ID, "Wrong case", []models.Ref{models.RefOf(doc)})
		require.ErrorIs(t, err, apperr.ErrValidation)

		after, err := svc.reports.ListReports(ctx, f.Detective.ID, cs.ID)
		require.NoError(t, err)
		assert.Len(t, after, len(before))

		_, err = svc.board.CreateLink(ctx, f.Detective.ID, cs.ID, models.RefOf(doc), models.RefOf(doc), "")
		require.ErrorIs(t, err, apperr.ErrValidation)
		links, err := svc.board.ListLinks(ctx, f.Detective.ID, cs.ID)
		require.NoError(t, err)
		assert.Empty(t, links)

		_, err = svc.cases.UpdateStatus(ctx, f.Chief.ID, other.ID, models.CaseClosed)
		require.NoError(t, err)
		_, err = svc.board.ListLinks(ctx, f.Detective.ID, other.ID)
		require.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.board.ListLinks(ctx, f.Chief.ID, other.ID)
		require.NoError(t, err)
	})

	t.Run("guilt assessment escalates to the chief on critical cases", func(t *testing.T) {
		require.NotNil(t, suspect)

		_, err := svc.suspects.CaptainOpinion(ctx, f.Captain.ID, cs.ID, suspect.ID, "Guilty")
		require.ErrorIs(t, err, apperr.ErrValidation)

		_, err = svc.suspects.DetectiveAssessment(ctx, f.Officer.ID, cs.ID, suspect.ID, 8)
		require.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.suspects.DetectiveAssessment(ctx, f.Detective.ID, cs.ID, suspect.ID, 8)
		require.NoError(t, err)
		_, err = svc.suspects.SergeantAssessment(ctx, f.Sergeant.ID, cs.ID, suspect.ID, 6)
		require.NoError(t, err)
		_, err = svc.suspects.CaptainOpinion(ctx, f.Captain.ID, cs.ID, suspect.ID, "Evidence is strong.")
		require.NoError(t, err)

		l, err := svc.suspects.ChiefApproval(ctx, f.Chief.ID, cs.ID, suspect.ID, true)
		require.NoError(t, err)
		require.NotNil(t, l.ChiefApproved)
		assert.True(t, *l.ChiefApproved)
		require.NotNil(t, l.AverageGuiltScore())
		assert.InDelta(t, 7.0, *l.AverageGuiltScore(), 0.001)
	})

	t.Run("suspect wanted for 35 days on a critical case", func(t *testing.T) {
		require.NotNil(t, suspect)

		_, err := svc.suspects.MarkWanted(ctx, f.Detective.ID, suspect.ID)
		require.NoError(t, err)

		clock = clock.Add(35*24*time.Hour + time.Hour)
		r, err := svc.suspects.Ranking(ctx, suspect.ID)
		require.NoError(t, err)
		assert.Equal(t, 35, r.DaysPursued)
		assert.Equal(t, 4, r.MaxDegree)
		assert.Equal(t, int64(140), r.Ranking)
		assert.Equal(t, int64(2_800_000_000), r.Reward)
		assert.True(t, r.Intensive)

		list, err := svc.suspects.IntensivePursuit(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, list)
		assert.Equal(t, suspect.ID, list[0].Suspect.ID)
	})

	t.Run("critical bail needs supervisor approval before release", func(t *testing.T) {
		require.NotNil(t, suspect)

		_, err := svc.bail.SetAmounts(ctx, f.Sergeant.ID, suspect.ID, ptr(int64(5_000_000)), nil)
		require.ErrorIs(t, err, apperr.ErrPrecondition)

		captured, err := svc.suspects.MarkCaptured(ctx, f.Officer.ID, suspect.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SuspectDetained, captured.Status)

		_, err = svc.bail.SetAmounts(ctx, f.Officer.ID, suspect.ID, ptr(int64(5_000_000)), nil)
		require.ErrorIs(t, err, apperr.ErrForbidden)
		_, err = svc.bail.SetAmounts(ctx, f.Sergeant.ID, suspect.ID, ptr(int64(5_000_000)), nil)
		require.NoError(t, err)

		res, err := svc.bail.RecordBailPayment(ctx, f.Citizen.ID, suspect.ID, 5_000_000, "PAY-1")
		require.NoError(t, err)
		assert.False(t, res.Released)
		assert.True(t, res.BailFine.BailPaid)
		assert.Equal(t, models.SeverityCritical, res.Tier)
		assert.Equal(t, models.SuspectDetained, res.Suspect.Status)

		_, err = svc.bail.SetSupervisorApproval(ctx, f.Sergeant.ID, suspect.ID)
		require.NoError(t, err)

		res, err = svc.bail.RecordBailPayment(ctx, f.Citizen.ID, suspect.ID, 5_000_000, "PAY-1")
		require.NoError(t, err)
		assert.True(t, res.Released)
		assert.Equal(t, models.SuspectReleased, res.Suspect.Status)
	})

	t.Run("reward flows from tip to station payout", func(t *testing.T) {
		tip, err := svc.rewards.SubmitTip(ctx, f.Citizen.ID, &cs.ID, nil, "The kidnapper hides in the old mill.")
		require.NoError(t, err)

		tip, _, err = svc.rewards.OfficerReview(ctx, f.Officer.ID, tip.ID, workflow.Approve, "Credible")
		require.NoError(t, err)
		assert.Equal(t, models.RewardPendingDetective, tip.Status)

		queue, err := svc.rewards.List(ctx, f.Detective.ID)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Empty(t, queue[0].RewardCode)

		tip, msg, err := svc.rewards.DetectiveReview(ctx, f.Detective.ID, tip.ID, workflow.Approve, "", ptr(int64(1_000_000)))
		require.NoError(t, err)
		assert.Equal(t, "Approved. User has been notified and can claim with the unique code.", msg)
		assert.Equal(t, models.RewardReadyForPayment, tip.Status)
		assert.Regexp(t, `^RWD-\d{8}-[A-Z0-9]{5}$`, tip.RewardCode)

		found, err := svc.rewards.Lookup(ctx, f.Cadet.ID, f.Citizen.NationalID, tip.RewardCode)
		require.NoError(t, err)
		assert.Equal(t, tip.ID, found.ID)

		_, err = svc.rewards.Claim(ctx, f.Cadet.ID, tip.ID, "Central station", false, "")
		require.ErrorIs(t, err, apperr.ErrValidation)
		paid, err := svc.rewards.Claim(ctx, f.Cadet.ID, tip.ID, "Central station", true, "TX-99")
		require.NoError(t, err)
		assert.Equal(t, models.RewardPaid, paid.Status)
		assert.Equal(t, "TX-99", paid.PaymentRef)
	})

	t.Run("presiding judge records the verdict", func(t *testing.T) {
		_, err := svc.trials.ScheduleTrial(ctx, f.Detective.ID, cs.ID, f.Judge.ID, clock.Add(24*time.Hour))
		require.ErrorIs(t, err, apperr.ErrForbidden)

		trial, err := svc.trials.ScheduleTrial(ctx, f.Captain.ID, cs.ID, f.Judge.ID, clock.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, models.TrialScheduled, trial.Status)

		_, err = svc.trials.ScheduleTrial(ctx, f.Captain.ID, cs.ID, f.Judge.ID, clock.Add(48*time.Hour))
		require.ErrorIs(t, err, apperr.ErrConflict)

		visible, err := svc.cases.List(ctx, f.Judge.ID)
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, cs.ID, visible[0].ID)

		dossier, err := svc.trials.GetTrial(ctx, f.Judge.ID, cs.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, dossier.Evidence)
		assert.Len(t, dossier.Suspects, 1)

		_, _, err = svc.trials.RecordVerdict(ctx, f.Captain.ID, cs.ID, models.VerdictGuilty, "10 years", "")
		require.ErrorIs(t, err, apperr.ErrForbidden)

		trial, msg, err := svc.trials.RecordVerdict(ctx, f.Judge.ID, cs.ID, models.VerdictGuilty, "10 years", "Unanimous")
		require.NoError(t, err)
		assert.Equal(t, "Verdict GUILTY recorded.", msg)
		assert.Equal(t, models.TrialCompleted, trial.Status)
	})
}

func TestInactiveActorFailsEveryCheck(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	f := testutil.SetupFixtures(t, tc.DB)
	ctx := context.Background()
	svc := newServices(f, f.Env)

	require.NoError(t, svc.accounts.SetActive(ctx, f.Admin.ID, f.Officer.ID, false))

	_, err := svc.cases.Create(ctx, f.Officer.ID, workflow.CaseInput{Title: "Burglary", Severity: models.SeverityLevel2})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.accounts.Login(ctx, f.Officer.Username, testutil.FixturePassword)
	require.ErrorIs(t, err, service.ErrUserInactive)
}

func TestRoleChangesApplyImmediately(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	f := testutil.SetupFixtures(t, tc.DB)
	ctx := context.Background()
	svc := newServices(f, f.Env)

	in := workflow.CaseInput{Title: "Arson", Severity: models.SeverityLevel1}
	_, err := svc.cases.Create(ctx, f.Citizen.ID, in)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.accounts.AssignRole(ctx, f.Admin.ID, f.Citizen.ID, "Police Officer"))
	_, err = svc.cases.Create(ctx, f.Citizen.ID, in)
	require.NoError(t, err)

	require.NoError(t, svc.accounts.RemoveRole(ctx, f.Admin.ID, f.Citizen.ID, "Police Officer"))
	_, err = svc.cases.Create(ctx, f.Citizen.ID, in)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestLogin(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	f := testutil.SetupFixtures(t, tc.DB)
	ctx := context.Background()
	svc := newServices(f, f.Env)

	res, err := svc.accounts.Login(ctx, f.Citizen.NationalID, testutil.FixturePassword)
	require.NoError(t, err)
	assert.Equal(t, f.Citizen.ID, res.User.ID)

	claims, err := f.Auth.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.Citizen.ID, claims.UserID)

	_, err = svc.accounts.Login(ctx, f.Citizen.Email, "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.accounts.Login(ctx, "nobody", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func ptr[T any](v T) *T {
	return &v
}
