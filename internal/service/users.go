package service

import (
	"context"
	"strings"

	"acceso/internal/cache"
	"acceso/internal/models"
	"acceso/internal/observability"
)

// UserGateway is the slice of the gateway client used by UserService.
type UserGateway interface {
	ListUsers(ctx context.Context, status string) (*models.UserList, error)
	UpdateUserStatus(ctx context.Context, id, status string) (*models.AccessUser, error)
}

// UserService lists provisioned users and toggles their status.
type UserService struct {
	gateway UserGateway
	audit   *observability.DecisionLogger
}

// NewUserService returns a new UserService.
func NewUserService(gateway UserGateway) *UserService {
	return &UserService{
		gateway: gateway,
		audit:   observability.NewDecisionLogger(),
	}
}

var userFilters = map[string]struct{}{
	"all":      {},
	"active":   {},
	"disabled": {},
}

// List returns the users matching filter, served cache-aside. An empty
// filter returns every user.
func (s *UserService) List(ctx context.Context, filter string) (*models.UserList, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "all"
	}
	if _, ok := userFilters[filter]; !ok {
		return nil, models.NewValidationError("status must be one of: all, active, disabled")
	}

	var list models.UserList
	err := cache.CacheAside(ctx, cache.UserViewKey(filter), &list, cache.UserViewTTL, func() error {
		fetched, err := s.gateway.ListUsers(ctx, filter)
		if err != nil {
			return err
		}
		list = *fetched
		return nil
	})
	if err != nil {
		recordUpstreamError(err)
		return nil, err
	}
	return &list, nil
}

// SetStatus activates or disables the user. The transition is symmetric and
// the user's access code is never touched. On success user views are
// invalidated; request views are unaffected by status changes.
func (s *UserService) SetStatus(ctx context.Context, id, status string) (*models.AccessUser, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError("user id is required")
	}
	status = strings.TrimSpace(status)
	if !models.ValidUserStatus(status) {
		return nil, models.NewValidationError("status must be one of: active, disabled")
	}

	user, err := s.gateway.UpdateUserStatus(ctx, id, status)
	if err != nil {
		recordUpstreamError(err)
		return nil, err
	}

	s.audit.LogUserStatusChange(ctx, id, status)
	cache.InvalidateUserViews(ctx)

	return user, nil
}
