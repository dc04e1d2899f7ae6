package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/atelier-erp/atelier-erp/internal/authz"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("rbac: duplicate")
	// ErrUnknownCode indicates an attempt to grant a code the catalog does
	// not declare.
	ErrUnknownCode = errors.New("rbac: unknown permission code")
)

// RepositoryPort defines the persistence surface the service depends on.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	UpsertPermission(ctx context.Context, code, label, description string) (Permission, bool, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error
	DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) error
	AssignRoleToUser(ctx context.Context, userID, roleID int64) error
	RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error
	ListRoleUserIDs(ctx context.Context, roleID int64) ([]int64, error)
	UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error)
	UserRole(ctx context.Context, userID int64) (authz.Role, error)
	GrantedCodes(ctx context.Context) ([]string, error)
}

// Service orchestrates RBAC persistence and materializes principals for the
// authz engine. Effective permission sets are cached in Redis and the
// database read is deduplicated per user under concurrent load.
type Service struct {
	repo     RepositoryPort
	catalog  *authz.Catalog
	cache    *redis.Client
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// NewService constructs a Service. The cache client may be nil, in which
// case every resolution reads the role join.
func NewService(repo RepositoryPort, catalog *authz.Catalog, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Catalog exposes the frozen permission catalog.
func (s *Service) Catalog() *authz.Catalog {
	return s.catalog
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role and drops the cached grants of its holders.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	holders, err := s.repo.ListRoleUserIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.invalidateUsers(ctx, holders)
	return nil
}

// ListPermissions returns the seeded permission rows.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// RolePermissions returns the permissions attached to a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.repo.ListRolePermissions(ctx, roleID)
}

// SetRolePermissions replaces the permission set of a role by diffing the
// current assignments against the wanted codes. Codes the catalog does not
// declare are rejected before anything is written.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, codes []string) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	for _, raw := range codes {
		code, err := authz.ParseCode(raw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownCode, raw)
		}
		if !s.catalog.Declares(code) {
			return fmt.Errorf("%w: %s", ErrUnknownCode, raw)
		}
	}

	all, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return err
	}
	byCode := make(map[string]int64, len(all))
	for _, p := range all {
		byCode[p.Code] = p.ID
	}

	current, err := s.repo.ListRolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}

	keep := make(map[int64]struct{}, len(codes))
	for _, code := range codes {
		id, ok := byCode[code]
		if !ok {
			return fmt.Errorf("%w: %s is not seeded", ErrUnknownCode, code)
		}
		keep[id] = struct{}{}
		if _, attached := existing[id]; !attached {
			if err := s.repo.AttachPermissionToRole(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, wanted := keep[id]; !wanted {
			if err := s.repo.DetachPermissionFromRole(ctx, roleID, id); err != nil {
				return err
			}
		}
	}

	holders, err := s.repo.ListRoleUserIDs(ctx, roleID)
	if err != nil {
		return err
	}
	s.invalidateUsers(ctx, holders)
	return nil
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.AssignRoleToUser(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidateUsers(ctx, []int64{userID})
	return nil
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RemoveRoleFromUser(ctx, userID, roleID); err != nil {
		return err
	}
	s.invalidateUsers(ctx, []int64{userID})
	return nil
}

// EffectivePermissions returns the deduplicated permission codes a user holds
// through its roles, serving from Redis when fresh.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, s.grantKey(userID)).Bytes(); err == nil {
			var codes []string
			if err := json.Unmarshal(data, &codes); err == nil {
				return codes, nil
			}
		}
	}

	v, err, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		codes, err := s.repo.UserEffectivePermissions(ctx, userID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if data, err := json.Marshal(codes); err == nil {
				if err := s.cache.Set(ctx, s.grantKey(userID), data, s.cacheTTL).Err(); err != nil && s.logger != nil {
					s.logger.Warn("cache effective permissions", slog.Any("error", err))
				}
			}
		}
		return codes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ResolvePrincipal materializes the authz principal for a user: its closed
// enum role plus the flat grant set. Everything downstream is a pure
// decision over this value.
func (s *Service) ResolvePrincipal(ctx context.Context, userID int64) (authz.Principal, error) {
	role, err := s.repo.UserRole(ctx, userID)
	if err != nil {
		return authz.Principal{}, err
	}
	if !role.Valid() {
		return authz.Principal{}, fmt.Errorf("rbac: user %d has unknown role %q", userID, role)
	}
	codes, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{ID: userID, Role: role, Grants: authz.NewGrantSet(codes...)}, nil
}

// SyncCatalog reconciles the permissions table with the catalog: inserts
// newly declared codes, refreshes metadata, and reports codes that are no
// longer declared but still carry role grants.
func (s *Service) SyncCatalog(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	for _, code := range s.catalog.Codes() {
		desc, _ := s.catalog.Lookup(code)
		_, inserted, err := s.repo.UpsertPermission(ctx, code.String(), desc.Label, desc.Description)
		if err != nil {
			return SyncReport{}, fmt.Errorf("rbac: sync %s: %w", code, err)
		}
		if inserted {
			report.Inserted = append(report.Inserted, code.String())
		}
	}

	dangling, err := s.DanglingGrants(ctx)
	if err != nil {
		return SyncReport{}, err
	}
	report.Dangling = dangling
	return report, nil
}

// DanglingGrants lists granted codes the catalog no longer declares. They
// still resolve for their holders, so releases should clean them up.
func (s *Service) DanglingGrants(ctx context.Context) ([]string, error) {
	granted, err := s.repo.GrantedCodes(ctx)
	if err != nil {
		return nil, err
	}
	var dangling []string
	for _, raw := range granted {
		code, err := authz.ParseCode(raw)
		if err != nil {
			dangling = append(dangling, raw)
			continue
		}
		if !s.catalog.Declares(code) {
			dangling = append(dangling, raw)
		}
	}
	return dangling, nil
}

// InvalidateUser drops the cached grant set of a user, forcing the next
// resolution to re-read the role join.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) {
	s.invalidateUsers(ctx, []int64{userID})
}

func (s *Service) invalidateUsers(ctx context.Context, userIDs []int64) {
	if s.cache == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.cache.Del(ctx, s.grantKey(id)).Err(); err != nil && s.logger != nil {
			s.logger.Warn("invalidate permission cache", slog.Int64("user_id", id), slog.Any("error", err))
		}
	}
}

func (s *Service) grantKey(userID int64) string {
	return "rbac:grants:" + strconv.FormatInt(userID, 10)
}
