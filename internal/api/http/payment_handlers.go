package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
)

// GET /create-checkout-session
// Starts a Stripe checkout and redirects to it. The success URL carries a
// one-time token that must come back with the checkout id.
func CreateCheckoutHandler(a *Access, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.Payments == nil {
			http.Error(w, "payments not configured", http.StatusServiceUnavailable)
			return
		}
		sid := auth.SessionIDFromContext(r.Context())
		token := uuid.NewString()
		success := publicURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}&token=" + url.QueryEscape(token)
		cancel := publicURL + "/"

		co, err := a.Payments.CreateCheckout(r.Context(), success, cancel)
		if err != nil {
			a.log().Error("create checkout", zap.Error(err))
			http.Error(w, "could not start checkout", http.StatusBadGateway)
			return
		}
		if err := a.Sessions.SetCheckout(r.Context(), sid, co.ID, token); err != nil {
			http.Error(w, "could not start checkout", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, co.URL, http.StatusSeeOther)
	}
}

// GET /purchase-success?session_id=...&token=...
func PurchaseSuccessHandler(a *Access) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sid := auth.SessionIDFromContext(ctx)
		checkoutID := r.URL.Query().Get("session_id")
		token := r.URL.Query().Get("token")

		s, err := a.Sessions.Get(ctx, sid)
		if err != nil || checkoutID == "" || token == "" ||
			s.CheckoutSessionID != checkoutID ||
			subtle.ConstantTimeCompare([]byte(s.CheckoutToken), []byte(token)) != 1 {
			http.Error(w, "Invalid purchase confirmation.", http.StatusForbidden)
			return
		}
		paid, err := a.VerifyPayment(ctx, sid, checkoutID)
		if err != nil {
			a.log().Warn("confirm payment", zap.Error(err))
		}
		if !paid {
			http.Error(w, "Payment not completed.", http.StatusForbidden)
			return
		}
		_ = a.Sessions.ClearCheckoutToken(ctx, sid)
		http.Redirect(w, r, "/report", http.StatusSeeOther)
	}
}

// GET /verify-payment?session_id=...  → { "paid": bool }
// Provider failures are logged and reported as not paid.
func VerifyPaymentHandler(a *Access) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paid, err := a.VerifyPayment(r.Context(), auth.SessionIDFromContext(r.Context()), r.URL.Query().Get("session_id"))
		if err != nil {
			a.log().Warn("verify payment", zap.Error(err))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"paid": paid})
	}
}
