package roles

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/rbac"
)

type stubRepository struct {
	nextRoleID int64
	nextPermID int64
	roles      map[int64]rbac.Role
	perms      map[string]rbac.Permission
	rolePerms  map[int64]map[int64]struct{}
	userRoles  map[int64]map[int64]struct{}
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		nextRoleID: 1,
		nextPermID: 1,
		roles:      map[int64]rbac.Role{},
		perms:      map[string]rbac.Permission{},
		rolePerms:  map[int64]map[int64]struct{}{},
		userRoles:  map[int64]map[int64]struct{}{},
	}
}

func (s *stubRepository) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRepository) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return r, nil
}

func (s *stubRepository) CreateRole(ctx context.Context, name, description string) (rbac.Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			return rbac.Role{}, rbac.ErrDuplicate
		}
	}
	r := rbac.Role{ID: s.nextRoleID, Name: name, Description: description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.roles[r.ID] = r
	s.rolePerms[r.ID] = map[int64]struct{}{}
	s.nextRoleID++
	return r, nil
}

func (s *stubRepository) UpdateRole(ctx context.Context, id int64, name, description string) (rbac.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	r.Name = name
	r.Description = description
	s.roles[id] = r
	return r, nil
}

func (s *stubRepository) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := s.roles[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(s.roles, id)
	delete(s.rolePerms, id)
	return nil
}

func (s *stubRepository) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	var out []rbac.Permission
	for _, p := range s.perms {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubRepository) UpsertPermission(ctx context.Context, code, label, description string) (rbac.Permission, bool, error) {
	if p, ok := s.perms[code]; ok {
		return p, false, nil
	}
	p := rbac.Permission{ID: s.nextPermID, Code: code, Label: label, Description: description}
	s.perms[code] = p
	s.nextPermID++
	return p, true, nil
}

func (s *stubRepository) ListRolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	var out []rbac.Permission
	for _, p := range s.perms {
		if _, ok := s.rolePerms[roleID][p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepository) AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	s.rolePerms[roleID][permissionID] = struct{}{}
	return nil
}

func (s *stubRepository) DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	delete(s.rolePerms[roleID], permissionID)
	return nil
}

func (s *stubRepository) AssignRoleToUser(ctx context.Context, userID, roleID int64) error {
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = map[int64]struct{}{}
	}
	s.userRoles[userID][roleID] = struct{}{}
	return nil
}

func (s *stubRepository) RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error {
	delete(s.userRoles[userID], roleID)
	return nil
}

func (s *stubRepository) ListRoleUserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	var out []int64
	for userID, roles := range s.userRoles {
		if _, ok := roles[roleID]; ok {
			out = append(out, userID)
		}
	}
	return out, nil
}

func (s *stubRepository) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for roleID := range s.userRoles[userID] {
		for _, p := range s.perms {
			if _, ok := s.rolePerms[roleID][p.ID]; !ok {
				continue
			}
			if _, dup := seen[p.Code]; dup {
				continue
			}
			seen[p.Code] = struct{}{}
			out = append(out, p.Code)
		}
	}
	return out, nil
}

func (s *stubRepository) UserRole(ctx context.Context, userID int64) (authz.Role, error) {
	return authz.RoleGerant, nil
}

func (s *stubRepository) GrantedCodes(ctx context.Context) ([]string, error) {
	var out []string
	for _, p := range s.perms {
		for _, attached := range s.rolePerms {
			if _, ok := attached[p.ID]; ok {
				out = append(out, p.Code)
				break
			}
		}
	}
	return out, nil
}

func injectPrincipal(p authz.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func newTestRouter(t *testing.T, p authz.Principal) (*chi.Mux, *rbac.Service) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := rbac.NewService(newStubRepository(), authz.DefaultCatalog(), nil, time.Minute, logger)
	_, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)

	guard := rbac.Middleware{Service: svc, Logger: logger}
	r := chi.NewRouter()
	r.Use(injectPrincipal(p))
	NewHandler(svc).MountRoutes(r, guard)
	return r, svc
}

func adminPrincipal() authz.Principal {
	return authz.Principal{ID: 1, Role: authz.RoleAdmin, Grants: authz.NewGrantSet()}
}

func TestCreateAndGetRole(t *testing.T) {
	router, _ := newTestRouter(t, adminPrincipal())

	body := bytes.NewBufferString(`{"name":"gestionnaire","description":"Gestion du centre"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created rbac.Role
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "gestionnaire", created.Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRoleValidation(t *testing.T) {
	router, _ := newTestRouter(t, adminPrincipal())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", bytes.NewBufferString(`{"name":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetRolePermissionsRejectsUnknownCode(t *testing.T) {
	router, _ := newTestRouter(t, adminPrincipal())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", bytes.NewBufferString(`{"name":"gestionnaire"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := bytes.NewBufferString(`{"codes":["accounting.segments.fly"]}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/roles/1/permissions", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetAndListRolePermissions(t *testing.T) {
	router, _ := newTestRouter(t, adminPrincipal())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", bytes.NewBufferString(`{"name":"gestionnaire"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := bytes.NewBufferString(`{"codes":["accounting.segments.view_page","accounting.segments.create"]}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/roles/1/permissions", body))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles/1/permissions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var perms []rbac.Permission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perms))
	assert.Len(t, perms, 2)
}

func TestDeleteMissingRole(t *testing.T) {
	router, _ := newTestRouter(t, adminPrincipal())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/roles/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoleRoutesDenyWithoutGrant(t *testing.T) {
	p := authz.Principal{
		ID:     7,
		Role:   authz.RoleProfessor,
		Grants: authz.NewGrantSet("training.courses.view_page"),
	}
	router, _ := newTestRouter(t, p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignRoleMember(t *testing.T) {
	router, svc := newTestRouter(t, adminPrincipal())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles", bytes.NewBufferString(`{"name":"gestionnaire"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := bytes.NewBufferString(`{"codes":["accounting.segments.view_page"]}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/roles/1/permissions", body))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/roles/1/members", bytes.NewBufferString(`{"user_id":42}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	grants, err := svc.EffectivePermissions(context.Background(), 42)
	require.NoError(t, err)
	assert.Contains(t, grants, "accounting.segments.view_page")
}
