// Package auth attaches a server-side quiz session to every browser.
package auth

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	authmw "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
	"github.com/mind-engage/mindengage-bigfive/internal/session"
)

const CookieName = "bf_session"

const cookieTTL = 30 * 24 * time.Hour

type SessionOptions struct {
	Secure bool
	Log    *zap.Logger
}

// SessionMiddleware reuses the session named by the signed cookie or
// creates a new one, refreshes the cookie, and puts the session id in the
// request context. A tampered or stale cookie gets a fresh session.
func SessionMiddleware(a *authmw.AuthService, store session.Store, opt SessionOptions) func(http.Handler) http.Handler {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := existingSession(ctx, a, store, r)
			if id == "" {
				s, err := store.Create(ctx)
				if err != nil {
					log.Error("create session", zap.Error(err))
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				id = s.ID
			}
			tok, err := a.IssueJWT(id)
			if err != nil {
				http.Error(w, "issue token", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    tok,
				Path:     "/",
				HttpOnly: true,
				Secure:   opt.Secure,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(cookieTTL),
			})
			next.ServeHTTP(w, r.WithContext(authmw.WithSessionID(ctx, id)))
		})
	}
}

func existingSession(ctx context.Context, a *authmw.AuthService, store session.Store, r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	claims, err := a.Parse(c.Value)
	if err != nil {
		return ""
	}
	if _, err := store.Get(ctx, claims.Sub); err != nil {
		return ""
	}
	return claims.Sub
}
