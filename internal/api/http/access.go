package http

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-bigfive/internal/freecode"
	"github.com/mind-engage/mindengage-bigfive/internal/gate"
	"github.com/mind-engage/mindengage-bigfive/internal/payment"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/report"
	"github.com/mind-engage/mindengage-bigfive/internal/session"
	syncx "github.com/mind-engage/mindengage-bigfive/internal/sync"
)

var ErrPaymentRequired = errors.New("payment required")

// Access holds the server-side rules for unlocking a report. The HTTP
// endpoints and the in-process gate collaborators both go through it.
type Access struct {
	Sessions session.Store
	Codes    *freecode.Store
	Payments payment.Provider // nil when checkout is not configured
	Renderer *report.Renderer
	Events   *syncx.EventRepo
	Log      *zap.Logger
}

func (a *Access) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

func (a *Access) record(ctx context.Context, typ, ref string, data any) {
	if a.Events == nil {
		return
	}
	if err := a.Events.Record(ctx, typ, ref, data); err != nil {
		a.log().Warn("event log append failed", zap.String("type", typ), zap.Error(err))
	}
}

// VerifyPayment confirms a checkout started by this visitor's session and
// marks the session paid. Ids belonging to another session, or unknown to
// the provider, are simply not paid.
func (a *Access) VerifyPayment(ctx context.Context, sid, checkoutID string) (bool, error) {
	if checkoutID == "" {
		return false, nil
	}
	s, err := a.Sessions.Get(ctx, sid)
	if err != nil {
		return false, err
	}
	if s.CheckoutSessionID != checkoutID {
		return false, nil
	}
	if s.Paid {
		return true, nil
	}
	if a.Payments == nil {
		return false, nil
	}
	paid, err := a.Payments.CheckoutPaid(ctx, checkoutID)
	if err != nil || !paid {
		return false, err
	}
	if err := a.Sessions.MarkPaid(ctx, sid); err != nil {
		return false, err
	}
	a.record(ctx, syncx.TypePaymentVerified, sid, map[string]string{"checkout_id": checkoutID})
	return true, nil
}

// SessionPaid reports whether the visitor's session is already unlocked.
func (a *Access) SessionPaid(ctx context.Context, sid string) (bool, error) {
	s, err := a.Sessions.Get(ctx, sid)
	if err != nil {
		return false, err
	}
	return s.Paid, nil
}

// RedeemFreeCode consumes code and marks the session paid. The session's
// latest code is left alone.
func (a *Access) RedeemFreeCode(ctx context.Context, sid, code string) (bool, error) {
	ok, err := a.Codes.Redeem(ctx, code, sid)
	if err != nil || !ok {
		return false, err
	}
	if err := a.Sessions.MarkPaid(ctx, sid); err != nil {
		return false, err
	}
	a.record(ctx, syncx.TypeFreeCodeRedeemed, sid, map[string]string{"code": freecode.Normalize(code)})
	return true, nil
}

// ReportCode picks the code to render: the session's stored code when
// present, otherwise the requested one, otherwise neutral.
func ReportCode(s session.Session, requested string) quiz.Code {
	if c, err := quiz.ParseCode(s.LatestCode); err == nil {
		return c
	}
	if c, err := quiz.ParseCode(requested); err == nil {
		return c
	}
	return quiz.NeutralCode
}

// Render returns the report for a paid session.
func (a *Access) Render(ctx context.Context, sid, requested, sub string) (string, error) {
	s, err := a.Sessions.Get(ctx, sid)
	if err != nil {
		return "", err
	}
	if !s.Paid {
		return "", ErrPaymentRequired
	}
	return a.Renderer.Render(ReportCode(s, requested), sub)
}

// For binds the access rules to one visitor session as gate collaborators.
func (a *Access) For(sid string) *SessionAccess {
	return &SessionAccess{access: a, sid: sid}
}

type SessionAccess struct {
	access *Access
	sid    string
}

var (
	_ gate.SessionChecker   = (*SessionAccess)(nil)
	_ gate.PaymentVerifier  = (*SessionAccess)(nil)
	_ gate.FreeCodeVerifier = (*SessionAccess)(nil)
	_ gate.ReportRenderer   = (*SessionAccess)(nil)
)

func (s *SessionAccess) SessionPaid(ctx context.Context) (bool, error) {
	return s.access.SessionPaid(ctx, s.sid)
}

func (s *SessionAccess) VerifyPayment(ctx context.Context, checkoutID string) (bool, error) {
	return s.access.VerifyPayment(ctx, s.sid, checkoutID)
}

func (s *SessionAccess) VerifyFreeCode(ctx context.Context, code string) (bool, error) {
	return s.access.RedeemFreeCode(ctx, s.sid, code)
}

func (s *SessionAccess) RenderReport(ctx context.Context, code, sub string) (string, error) {
	return s.access.Render(ctx, s.sid, code, sub)
}
