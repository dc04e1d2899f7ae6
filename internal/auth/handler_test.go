package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-erp/atelier-erp/internal/auth"
	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, csrfManager)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(w, req.WithContext(ctx))
			if err := sessionManager.Commit(ctx, w, req, sess); err != nil {
				t.Fatalf("commit session: %v", err)
			}
		})
	})
	handler.MountRoutes(r)
	return r, sessionManager
}

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &auth.User{
		ID:           1,
		Email:        "gerant@atelier.ma",
		Name:         "Gérant",
		PasswordHash: string(hash),
		Role:         authz.RoleGerant,
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "motdepasse")})

	body := strings.NewReader(`{"email":"gerant@atelier.ma","password":"motdepasse"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Body.String(), `"role":"gerant"`) {
		t.Fatalf("response missing role: %s", res.Body.String())
	}
	cookies := res.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "motdepasse")})

	body := strings.NewReader(`{"email":"gerant@atelier.ma","password":"incorrect1"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	user := activeUser(t, "motdepasse")
	user.IsActive = false
	router, _ := newAuthRouter(t, &stubRepo{user: user})

	body := strings.NewReader(`{"email":"gerant@atelier.ma","password":"motdepasse"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	body := strings.NewReader(`{"email":"not-an-email","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/login", body)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestLogout(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{user: activeUser(t, "motdepasse")})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", res.Code)
	}
}
