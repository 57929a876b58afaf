package http

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsess "github.com/mind-engage/mindengage-bigfive/internal/auth"
	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/rbac"
)

// API wires the quiz, access and report endpoints. Every route runs with a
// server-side session attached.
type API struct {
	Access  *Access
	Scorer  *quiz.Scorer
	Auth    *auth.AuthService
	Metrics *metrics.Metrics
	Log     *zap.Logger

	PublicURL       string
	SecureCookies   bool
	OwnerSecretHash string

	// Report page gate; defaults to InProcessGate(Access).
	Gate GateFactory
}

func (a *API) Routes(r chi.Router) {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	newGate := a.Gate
	if newGate == nil {
		newGate = InProcessGate(a.Access)
	}
	sessions := a.Access.Sessions
	events := a.Access.Events

	r.Group(func(sr chi.Router) {
		sr.Use(authsess.SessionMiddleware(a.Auth, sessions, authsess.SessionOptions{Secure: a.SecureCookies, Log: log}))
		sr.Use(auth.AttachOwnerRole(a.OwnerSecretHash))

		sr.Group(func(qr chi.Router) {
			qr.Use(rbac.Require(rbac.PermQuizTake))
			qr.Get("/", QuizPageHandler(a.Scorer.Catalog(), log))
			qr.Post("/quiz", QuizSubmitHandler(a.Scorer, sessions, events, a.Metrics, log))
			qr.Get("/subtype", SubtypePageHandler(sessions, log))
			qr.Post("/subtype", SubtypePageHandler(sessions, log))
			qr.Get("/api/questions", QuestionsHandler(a.Scorer.Catalog()))
			qr.Post("/api/score", ScoreHandler(a.Scorer, sessions, events, a.Metrics, log))
			qr.Post("/api/set-latest-code", SetLatestCodeHandler(sessions, events))
			qr.Post("/api/subtype", SubtypeHandler(sessions))
		})

		sr.Group(func(rr chi.Router) {
			rr.Use(rbac.Require(rbac.PermReportView))
			rr.Get("/report", ReportPageHandler(newGate, events, log))
			rr.Get("/api/render-report", RenderReportHandler(a.Access))
			rr.Get("/api/download-report", DownloadReportHandler(a.Access))
			rr.Post("/verify-free-code", VerifyFreeCodeHandler(a.Access))
			rr.Get("/verify-payment", VerifyPaymentHandler(a.Access))
			rr.Get("/create-checkout-session", CreateCheckoutHandler(a.Access, a.PublicURL))
			rr.Get("/purchase-success", PurchaseSuccessHandler(a.Access))
		})
	})

	// Owner tools
	r.Group(func(or chi.Router) {
		or.Use(auth.AttachOwnerRole(a.OwnerSecretHash))
		or.With(rbac.Require(rbac.PermFreeCodeCreate)).
			Get("/generate-free-code", GenerateFreeCodeHandler(a.Access.Codes, log))
		or.With(rbac.Require(rbac.PermFreeCodeList)).
			Get("/free-codes", ListFreeCodesHandler(a.Access.Codes))
	})
}
