package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
	"github.com/mind-engage/mindengage-bigfive/internal/freecode"
)

// GET /generate-free-code?key=...  (owner only; see rbac)
func GenerateFreeCodeHandler(codes *freecode.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := codes.Generate(r.Context())
		if err != nil {
			log.Error("generate free code", zap.Error(err))
			http.Error(w, "could not generate code", http.StatusInternalServerError)
			return
		}
		log.Info("free code generated")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"new_code": code})
	}
}

// GET /free-codes?key=...  (owner only)
func ListFreeCodesHandler(codes *freecode.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := codes.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"codes": list})
	}
}

// POST /verify-free-code  { "code": "..." }
// Rejections are 400 with valid=false so callers can tell them apart from
// server faults.
func VerifyFreeCodeHandler(a *Access) http.HandlerFunc {
	reply := func(w http.ResponseWriter, status int, body map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.TrimSpace(req.Code) == "" {
			reply(w, http.StatusBadRequest, map[string]any{"valid": false, "error": "No code provided."})
			return
		}
		ok, err := a.RedeemFreeCode(r.Context(), auth.SessionIDFromContext(r.Context()), req.Code)
		if err != nil {
			a.log().Error("redeem free code", zap.Error(err))
			reply(w, http.StatusInternalServerError, map[string]any{"valid": false, "error": "Could not verify code."})
			return
		}
		if !ok {
			reply(w, http.StatusBadRequest, map[string]any{"valid": false, "error": "Invalid or already used."})
			return
		}
		reply(w, http.StatusOK, map[string]any{"valid": true})
	}
}
