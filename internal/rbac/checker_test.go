package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHas(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.Has(RoleOwner, PermFreeCodeCreate))
	assert.True(t, c.Has(RoleVisitor, PermReportView))
	assert.False(t, c.Has(RoleVisitor, PermFreeCodeCreate))
	assert.False(t, c.Has("", PermQuizTake))

	c = NewChecker(map[string][]string{"ops": {"freecode:*"}})
	assert.True(t, c.Has("ops", PermFreeCodeList))
	assert.False(t, c.Has("ops", PermReportView))
}

func TestRequire(t *testing.T) {
	h := Require(PermFreeCodeCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{
		"":          http.StatusForbidden,
		RoleVisitor: http.StatusForbidden,
		RoleOwner:   http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/generate-free-code", nil)
		if role != "" {
			req = req.WithContext(WithRole(req.Context(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}

func TestRequireVisitorPermissions(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	for _, perm := range []string{PermQuizTake, PermReportView} {
		req := httptest.NewRequest(http.MethodGet, "/report", nil)
		rec := httptest.NewRecorder()
		Require(perm)(ok).ServeHTTP(rec, req.WithContext(WithRole(req.Context(), RoleVisitor)))
		assert.Equal(t, http.StatusNoContent, rec.Code, perm)

		rec = httptest.NewRecorder()
		Require(perm)(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s without a role", perm)
	}
}
