package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the resolved principal from context.
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(authz.Principal)
	return p, ok
}

// DenialRecorder counts authorization denials, typically backed by
// Prometheus.
type DenialRecorder interface {
	RecordDenial(code string)
}

// Middleware wires authorization helpers for HTTP handlers. Every guard
// resolves the principal once, stores it in context, and delegates the
// decision to the authz engine, so admin and wildcard bypass apply
// uniformly.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Denials DenialRecorder
}

// Require ensures the current user holds the permission code.
func (m Middleware) Require(code authz.Code) func(http.Handler) http.Handler {
	return m.guard(code.String(), func(p authz.Principal) bool {
		return authz.Can(p, code)
	})
}

// RequireAny ensures the current user holds at least one of the codes.
func (m Middleware) RequireAny(codes ...authz.Code) func(http.Handler) http.Handler {
	label := ""
	if len(codes) > 0 {
		label = codes[0].String()
	}
	return m.guard(label, func(p authz.Principal) bool {
		return authz.CanAny(p, codes...)
	})
}

// RequireAll ensures the current user holds all of the codes.
func (m Middleware) RequireAll(codes ...authz.Code) func(http.Handler) http.Handler {
	label := ""
	if len(codes) > 0 {
		label = codes[0].String()
	}
	return m.guard(label, func(p authz.Principal) bool {
		return authz.CanAll(p, codes...)
	})
}

// RequirePage ensures the current user may open the module.menu screen.
func (m Middleware) RequirePage(module, menu string) func(http.Handler) http.Handler {
	return m.Require(authz.Code{Module: module, Menu: menu, Action: authz.ActionViewPage})
}

// RequireAuthenticated only resolves the principal, without a permission
// check. Handlers that decide per-record can read it from context.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.resolve(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

func (m Middleware) guard(code string, allowed func(authz.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := m.resolve(w, r)
			if !ok {
				return
			}
			if !allowed(principal) {
				if m.Denials != nil {
					m.Denials.RecordDenial(code)
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// resolve loads the principal for the session user. A missing session is a
// 401; a resolution failure is a 500, never a silent denial.
func (m Middleware) resolve(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		return principal, true
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == 0 {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return authz.Principal{}, false
	}
	principal, err := m.Service.ResolvePrincipal(r.Context(), sess.User())
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("resolve principal", slog.Int64("user_id", sess.User()), slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return authz.Principal{}, false
	}
	return principal, true
}
