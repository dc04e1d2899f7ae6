package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/authz"
)

type countingRecorder struct {
	codes []string
}

func (c *countingRecorder) RecordDenial(code string) {
	c.codes = append(c.codes, code)
}

func newGuardedRequest(t *testing.T, principal authz.Principal) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	return req.WithContext(ContextWithPrincipal(context.Background(), principal))
}

func TestRequireAllowsGrantHolder(t *testing.T) {
	mw := Middleware{}
	var reached bool
	handler := mw.Require(authz.MustCode("accounting.segments.view_page"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true }))

	principal := authz.Principal{ID: 1, Role: authz.RoleGerant, Grants: authz.NewGrantSet("accounting.segments.view_page")}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newGuardedRequest(t, principal))

	require.True(t, reached)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireDeniesAndRecords(t *testing.T) {
	recorder := &countingRecorder{}
	mw := Middleware{Denials: recorder}
	handler := mw.Require(authz.MustCode("accounting.segments.delete"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run on denial")
		}))

	principal := authz.Principal{ID: 2, Role: authz.RoleGerant, Grants: authz.NewGrantSet("accounting.segments.view_page")}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newGuardedRequest(t, principal))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, []string{"accounting.segments.delete"}, recorder.codes)
}

func TestRequireAdminBypass(t *testing.T) {
	mw := Middleware{}
	var reached bool
	handler := mw.Require(authz.MustCode("accounting.segments.delete"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true }))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, newGuardedRequest(t, authz.Principal{ID: 3, Role: authz.RoleAdmin}))
	require.True(t, reached)
}

func TestRequireAnyAndAll(t *testing.T) {
	mw := Middleware{}
	principal := authz.Principal{ID: 4, Role: authz.RoleProfessor, Grants: authz.NewGrantSet("training.sessions.view_page")}

	anyHandler := mw.RequireAny(
		authz.MustCode("training.sessions.update"),
		authz.MustCode("training.sessions.view_page"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	res := httptest.NewRecorder()
	anyHandler.ServeHTTP(res, newGuardedRequest(t, principal))
	assert.Equal(t, http.StatusOK, res.Code)

	allHandler := mw.RequireAll(
		authz.MustCode("training.sessions.update"),
		authz.MustCode("training.sessions.view_page"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	res = httptest.NewRecorder()
	allHandler.ServeHTTP(res, newGuardedRequest(t, principal))
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestGuardWithoutSessionIsUnauthorized(t *testing.T) {
	mw := Middleware{}
	handler := mw.Require(authz.MustCode("accounting.segments.view_page"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run without a session")
		}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
