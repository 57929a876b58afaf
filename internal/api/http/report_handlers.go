package http

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
)

// GET /api/render-report?code=...&sub=...
// Paid sessions only. The session's stored code wins over the query.
func RenderReportHandler(a *Access) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		html, err := a.Render(r.Context(), auth.SessionIDFromContext(r.Context()), q.Get("code"), q.Get("sub"))
		switch {
		case errors.Is(err, ErrPaymentRequired):
			http.Error(w, "Access denied. Payment required.", http.StatusForbidden)
			return
		case err != nil:
			a.log().Error("render report", zap.Error(err))
			http.Error(w, "could not render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}

// GET /api/download-report
func DownloadReportHandler(a *Access) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := a.Sessions.Get(r.Context(), auth.SessionIDFromContext(r.Context()))
		if err != nil || !s.Paid {
			http.Error(w, "Access denied. Payment required.", http.StatusForbidden)
			return
		}
		name, body := a.Renderer.Text(ReportCode(s, r.URL.Query().Get("code")))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		_, _ = w.Write([]byte(body))
	}
}
