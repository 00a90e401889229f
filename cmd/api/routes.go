package main

import (
	"database/sql"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"precinct/internal/auth"
	"precinct/internal/authz"
	"precinct/internal/config"
	"precinct/internal/handlers"
	"precinct/internal/metrics"
	"precinct/internal/middleware"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// server holds the HTTP handler of the API and the resources it must
// release on shutdown
type server struct {
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// Close stops background work started for the server
func (s *server) Close() {
	s.rateLimiter.Close()
}

func rulesFrom(cfg *config.WorkflowConfig) workflow.Rules {
	rules := workflow.DefaultRules()
	rules.MaxCadetRejections = cfg.MaxCadetRejections
	rules.IntensivePursuitDays = cfg.IntensivePursuitDays
	rules.RewardUnit = cfg.RewardUnit
	return rules
}

// newServer wires services, handlers and middleware onto a router
func newServer(cfg *config.Config, db *sql.DB, m *metrics.Metrics) *server {
	env := service.NewEnv(db, rulesFrom(&cfg.Workflow), m)
	authService := auth.NewService(&cfg.JWT)

	// Initialize services
	accountService := service.NewAccountService(env, authService)
	auditService := service.NewAuditService(env)
	complaintService := service.NewComplaintService(env)
	caseService := service.NewCaseService(env)
	evidenceService := service.NewEvidenceService(env)
	boardService := service.NewBoardService(env)
	reportService := service.NewReportService(env)
	suspectService := service.NewSuspectService(env)
	bailService := service.NewBailService(env)
	trialService := service.NewTrialService(env)
	rewardService := service.NewRewardService(env)
	notificationService := service.NewNotificationService(env)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	rbacMw := middleware.NewRBACMiddleware(env.Checker)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	auditMw := middleware.NewAuditMiddleware(auditService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService, auditService)
	userHandler := handlers.NewUserHandler(accountService, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)
	configHandler := handlers.NewConfigHandler(cfg, db)
	complaintHandler := handlers.NewComplaintHandler(complaintService)
	caseHandler := handlers.NewCaseHandler(caseService)
	evidenceHandler := handlers.NewEvidenceHandler(evidenceService, boardService)
	reportHandler := handlers.NewReportHandler(reportService)
	suspectHandler := handlers.NewSuspectHandler(suspectService, bailService)
	trialHandler := handlers.NewTrialHandler(trialService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(h)
	}
	permitted := func(code authz.Permission, h http.HandlerFunc) http.Handler {
		return authMw.Authenticate(rbacMw.RequirePermission(code)(h))
	}

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/config/app", configHandler.GetAppConfig)
	mux.HandleFunc("GET /api/v1/suspects/most-wanted", suspectHandler.MostWanted)

	mux.Handle("GET /api/v1/auth/me", authed(authHandler.Me))

	// Account administration
	mux.Handle("GET /api/v1/users", permitted(authz.PermManageUsers, userHandler.ListUsers))
	mux.Handle("POST /api/v1/users", permitted(authz.PermManageUsers, userHandler.CreateUser))
	mux.Handle("PUT /api/v1/users/{id}/active", permitted(authz.PermManageUsers, userHandler.SetActive))
	mux.Handle("POST /api/v1/users/{id}/roles", permitted(authz.PermManageRoles, userHandler.AssignRole))
	mux.Handle("DELETE /api/v1/users/{id}/roles/{role}", permitted(authz.PermManageRoles, userHandler.RemoveRole))
	mux.Handle("GET /api/v1/roles", authed(userHandler.ListRoles))
	mux.Handle("GET /api/v1/admin/audit-logs",
		authMw.Authenticate(
			rbacMw.RequireAdmin()(
				http.HandlerFunc(auditHandler.ListAuditLogs),
			),
		),
	)

	// Complaints
	mux.Handle("POST /api/v1/complaints", authed(complaintHandler.Submit))
	mux.Handle("GET /api/v1/complaints", authed(complaintHandler.List))
	mux.Handle("GET /api/v1/complaints/{id}", authed(complaintHandler.Get))
	mux.Handle("PUT /api/v1/complaints/{id}", authed(complaintHandler.Update))
	mux.Handle("POST /api/v1/complaints/{id}/cadet-review", permitted(authz.PermComplaintReviewCadet, complaintHandler.CadetReview))
	mux.Handle("POST /api/v1/complaints/{id}/officer-review", permitted(authz.PermComplaintReviewOfficer, complaintHandler.OfficerReview))

	// Cases
	mux.Handle("POST /api/v1/cases", authed(caseHandler.Create))
	mux.Handle("GET /api/v1/cases", authed(caseHandler.List))
	mux.Handle("GET /api/v1/cases/{id}", authed(caseHandler.Get))
	mux.Handle("POST /api/v1/cases/{id}/approve", permitted(authz.PermCaseApprove, caseHandler.Approve))
	mux.Handle("POST /api/v1/cases/{id}/assign-detective",
		authMw.Authenticate(
			rbacMw.RequirePermission(authz.PermCaseAssignDetective)(
				auditMw.Log("case.assign_detective", "case")(
					http.HandlerFunc(caseHandler.AssignDetective),
				),
			),
		),
	)
	mux.Handle("POST /api/v1/cases/{id}/team", authed(caseHandler.AddTeamMember))
	mux.Handle("DELETE /api/v1/cases/{id}/team/{userId}", authed(caseHandler.RemoveTeamMember))
	mux.Handle("PUT /api/v1/cases/{id}/status",
		authMw.Authenticate(
			auditMw.Log("case.status_change", "case")(
				http.HandlerFunc(caseHandler.UpdateStatus),
			),
		),
	)

	// Evidence and detective board
	mux.Handle("POST /api/v1/cases/{id}/evidence", permitted(authz.PermEvidenceAdd, evidenceHandler.Add))
	mux.Handle("GET /api/v1/cases/{id}/evidence", authed(evidenceHandler.List))
	mux.Handle("GET /api/v1/evidence/{type}/{id}", authed(evidenceHandler.Get))
	mux.Handle("POST /api/v1/evidence/biological/{id}/lab-result", permitted(authz.PermEvidenceCoronerApprove, evidenceHandler.RecordLabResult))
	mux.Handle("POST /api/v1/evidence/biological/{id}/coroner-approve", permitted(authz.PermEvidenceCoronerApprove, evidenceHandler.CoronerApprove))
	mux.Handle("POST /api/v1/cases/{id}/board/links", permitted(authz.PermDetectiveBoard, evidenceHandler.CreateLink))
	mux.Handle("GET /api/v1/cases/{id}/board/links", authed(evidenceHandler.ListLinks))
	mux.Handle("DELETE /api/v1/cases/{id}/board/links/{linkId}", permitted(authz.PermDetectiveBoard, evidenceHandler.DeleteLink))

	// Reports and suspects
	mux.Handle("POST /api/v1/cases/{id}/reports", permitted(authz.PermDetectiveBoard, reportHandler.Create))
	mux.Handle("GET /api/v1/cases/{id}/reports", authed(reportHandler.List))
	mux.Handle("POST /api/v1/reports/{id}/review", permitted(authz.PermSergeantReview, reportHandler.Review))
	mux.Handle("GET /api/v1/cases/{id}/suspects", authed(suspectHandler.ListCaseSuspects))
	mux.Handle("POST /api/v1/cases/{id}/suspects/{suspectId}/detective-score", authed(suspectHandler.DetectiveScore))
	mux.Handle("POST /api/v1/cases/{id}/suspects/{suspectId}/sergeant-score", authed(suspectHandler.SergeantScore))
	mux.Handle("POST /api/v1/cases/{id}/suspects/{suspectId}/captain-opinion", authed(suspectHandler.CaptainOpinion))
	mux.Handle("POST /api/v1/cases/{id}/suspects/{suspectId}/chief-decision", authed(suspectHandler.ChiefDecision))
	mux.Handle("POST /api/v1/suspects/{id}/wanted", authed(suspectHandler.MarkWanted))
	mux.Handle("POST /api/v1/suspects/{id}/captured", authed(suspectHandler.MarkCaptured))
	mux.Handle("GET /api/v1/suspects/{id}/ranking", authed(suspectHandler.Ranking))

	// Bail and fines
	mux.Handle("PUT /api/v1/suspects/{id}/bail", authed(suspectHandler.SetBail))
	mux.Handle("POST /api/v1/suspects/{id}/bail/approve", authed(suspectHandler.ApproveBail))
	mux.Handle("POST /api/v1/suspects/{id}/bail/pay",
		authMw.Authenticate(
			auditMw.Log("bail.payment", "suspect")(
				http.HandlerFunc(suspectHandler.Pay),
			),
		),
	)

	// Trials
	mux.Handle("POST /api/v1/cases/{id}/trial", authed(trialHandler.Schedule))
	mux.Handle("GET /api/v1/cases/{id}/trial", authed(trialHandler.Get))
	mux.Handle("POST /api/v1/cases/{id}/trial/verdict",
		authMw.Authenticate(
			auditMw.Log("trial.verdict", "trial")(
				http.HandlerFunc(trialHandler.Verdict),
			),
		),
	)

	// Rewards
	mux.Handle("POST /api/v1/rewards", permitted(authz.PermRewardCreate, rewardHandler.SubmitTip))
	mux.Handle("GET /api/v1/rewards", authed(rewardHandler.List))
	mux.Handle("GET /api/v1/rewards/lookup", permitted(authz.PermRewardLookup, rewardHandler.Lookup))
	mux.Handle("GET /api/v1/rewards/{id}", authed(rewardHandler.Get))
	mux.Handle("POST /api/v1/rewards/{id}/officer-review", permitted(authz.PermRewardReviewOfficer, rewardHandler.OfficerReview))
	mux.Handle("POST /api/v1/rewards/{id}/detective-review", permitted(authz.PermRewardReviewDetective, rewardHandler.DetectiveReview))
	mux.Handle("POST /api/v1/rewards/{id}/claim",
		authMw.Authenticate(
			auditMw.Log("reward.claim", "reward")(
				http.HandlerFunc(rewardHandler.Claim),
			),
		),
	)

	// Notifications
	mux.Handle("GET /api/v1/notifications", authed(notificationHandler.List))
	mux.Handle("POST /api/v1/notifications/{id}/read", authed(notificationHandler.MarkRead))
	mux.Handle("POST /api/v1/notifications/read-all", authed(notificationHandler.MarkAllRead))

	// Health, metrics and documentation
	mux.HandleFunc("GET /health", configHandler.Health)
	if cfg.Metrics.Enabled && m != nil {
		mux.Handle("GET "+cfg.Metrics.Path, m.Handler())
	}
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(m)(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	return &server{handler: handler, rateLimiter: rateLimiter}
}
