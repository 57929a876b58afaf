// Package gate decides whether a visitor may see the rendered report and,
// if so, fetches it.
//
// The decision runs in a fixed order: payment session first, then a free
// code, then the subtype-referrer bypass. Verification failures of any
// kind count as "not verified"; they never grant access.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
)

const DefaultTimeout = 5 * time.Second

type State string

const (
	StateDenied State = "denied"
	StateError  State = "error"
	StateShown  State = "shown"
)

type Via string

const (
	ViaNone     Via = ""
	ViaSession  Via = "session"
	ViaPayment  Via = "payment"
	ViaFreeCode Via = "free_code"
	ViaSubtype  Via = "subtype"
)

// User-visible markup for the non-report states. These never carry error
// details.
const (
	DeniedHTML = `<p>❌ Access denied: payment not verified.</p>
<p><a href="/">Return to test</a></p>`
	ErrorHTML = `<p>⚠️ Error loading report. Please try again later.</p>`
)

// SessionChecker reports whether the visitor's own session is already
// unlocked, whatever the page URL carries.
type SessionChecker interface {
	SessionPaid(ctx context.Context) (bool, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, sessionID string) (bool, error)
}

type FreeCodeVerifier interface {
	VerifyFreeCode(ctx context.Context, code string) (bool, error)
}

type ReportRenderer interface {
	RenderReport(ctx context.Context, code, sub string) (string, error)
}

// VerificationTransportError wraps any failure while asking a verifier.
// The gate recovers from it locally by treating the check as failed.
type VerificationTransportError struct {
	Kind string // "payment" or "free_code"
	Err  error
}

func (e *VerificationTransportError) Error() string {
	return fmt.Sprintf("%s verification: %v", e.Kind, e.Err)
}

func (e *VerificationTransportError) Unwrap() error { return e.Err }

type ReportLoadError struct {
	Err error
}

func (e *ReportLoadError) Error() string { return "load report: " + e.Err.Error() }

func (e *ReportLoadError) Unwrap() error { return e.Err }

// Request is what the report page knows about the visitor.
type Request struct {
	SessionID string
	Code      string
	Sub       string
	Free      string
	Referrer  string
}

// FromURL reads the gate parameters from the report page URL. A missing
// code defaults to the neutral code.
func FromURL(u *url.URL, referrer string) Request {
	q := u.Query()
	code := q.Get("code")
	if code == "" {
		code = string(quiz.NeutralCode)
	}
	return Request{
		SessionID: q.Get("session_id"),
		Code:      code,
		Sub:       q.Get("sub"),
		Free:      q.Get("free"),
		Referrer:  referrer,
	}
}

// FromSubtype reports whether the visitor arrived from the subtype page.
// The referrer is client-supplied, so this is a convenience path and not
// an authentication signal.
func (r Request) FromSubtype() bool {
	if r.Referrer == "" {
		return false
	}
	u, err := url.Parse(r.Referrer)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "/subtype")
}

type Outcome struct {
	State    State
	HTML     string
	Verified bool
	Via      Via
	Err      error // the ReportLoadError behind StateError, for logging only
}

type Gate struct {
	session   SessionChecker
	payments  PaymentVerifier
	freeCodes FreeCodeVerifier
	reports   ReportRenderer

	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Gate)

func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(g *Gate) { g.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(g *Gate) { g.metrics = m } }

// WithSession makes an already-paid session pass the gate before any
// URL-based verification runs.
func WithSession(s SessionChecker) Option { return func(g *Gate) { g.session = s } }

func New(p PaymentVerifier, f FreeCodeVerifier, r ReportRenderer, opts ...Option) *Gate {
	g := &Gate{
		payments:  p,
		freeCodes: f,
		reports:   r,
		timeout:   DefaultTimeout,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gate) Run(ctx context.Context, req Request) Outcome {
	log := g.log.With(zap.String("code", req.Code), zap.Bool("has_session", req.SessionID != ""), zap.Bool("has_free", req.Free != ""))

	verified, via := false, ViaNone
	if g.session != nil {
		verified = g.verify(ctx, log, string(ViaSession), g.session.SessionPaid)
		if verified {
			via = ViaSession
		}
	}

	if !verified && req.SessionID != "" {
		verified = g.verify(ctx, log, string(ViaPayment), func(ctx context.Context) (bool, error) {
			if g.payments == nil {
				return false, errors.New("no payment verifier")
			}
			return g.payments.VerifyPayment(ctx, req.SessionID)
		})
		if verified {
			via = ViaPayment
		}
	}

	if !verified && req.Free != "" {
		verified = g.verify(ctx, log, string(ViaFreeCode), func(ctx context.Context) (bool, error) {
			if g.freeCodes == nil {
				return false, errors.New("no free code verifier")
			}
			return g.freeCodes.VerifyFreeCode(ctx, req.Free)
		})
		if verified {
			via = ViaFreeCode
		}
	}

	if !verified {
		if !req.FromSubtype() {
			log.Info("report access denied")
			return g.finish(Outcome{State: StateDenied, HTML: DeniedHTML})
		}
		via = ViaSubtype
	}

	html, err := g.render(ctx, req)
	if err != nil {
		lerr := &ReportLoadError{Err: err}
		log.Error("report load failed", zap.Error(lerr))
		return g.finish(Outcome{State: StateError, HTML: ErrorHTML, Verified: verified, Via: via, Err: lerr})
	}
	log.Info("report loaded", zap.String("via", string(via)))
	return g.finish(Outcome{State: StateShown, HTML: html, Verified: verified, Via: via})
}

func (g *Gate) finish(o Outcome) Outcome {
	g.metrics.GateOutcome(string(o.State), string(o.Via))
	return o
}

// verify runs one check under the gate timeout. Errors, timeouts and late
// answers all count as not verified.
func (g *Gate) verify(ctx context.Context, log *zap.Logger, kind string, call func(context.Context) (bool, error)) bool {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ok, err := call(cctx)
	if err == nil && cctx.Err() != nil {
		err = cctx.Err()
	}
	if err != nil {
		verr := &VerificationTransportError{Kind: kind, Err: err}
		log.Warn("verification failed", zap.Error(verr))
		g.metrics.Verification(kind, "error")
		return false
	}
	if ok {
		g.metrics.Verification(kind, "verified")
	} else {
		g.metrics.Verification(kind, "rejected")
	}
	return ok
}

func (g *Gate) render(ctx context.Context, req Request) (string, error) {
	if g.reports == nil {
		return "", errors.New("no report renderer")
	}
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	html, err := g.reports.RenderReport(cctx, req.Code, req.Sub)
	if err == nil && cctx.Err() != nil {
		err = cctx.Err()
	}
	return html, err
}
