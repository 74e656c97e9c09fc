package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acceso/internal/cache"
	"acceso/internal/models"
)

func TestUserServiceList(t *testing.T) {
	t.Parallel()

	t.Run("empty filter lists everyone", func(t *testing.T) {
		t.Parallel()

		gw := &stubGateway{
			listUsersFn: func(ctx context.Context, status string) (*models.UserList, error) {
				assert.Equal(t, "all", status)
				return &models.UserList{
					Items: []models.AccessUser{{ID: "usr_1", Status: models.UserActive}},
					Total: 1,
				}, nil
			},
		}

		svc := NewUserService(gw)
		list, err := svc.List(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, 1, list.Total)
	})

	t.Run("request statuses are not user filters", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(&stubGateway{})
		_, err := svc.List(context.Background(), "pending")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})
}

func TestUserServiceSetStatus(t *testing.T) {
	t.Run("disable keeps the access code and drops user views only", func(t *testing.T) {
		mr := seedViews(t)

		gw := &stubGateway{
			setStatusFn: func(ctx context.Context, id, status string) (*models.AccessUser, error) {
				assert.Equal(t, "usr_3", id)
				assert.Equal(t, "disabled", status)
				return &models.AccessUser{ID: id, Status: models.UserDisabled, AccessCode: "KEEP1234"}, nil
			},
		}

		svc := NewUserService(gw)
		user, err := svc.SetStatus(context.Background(), "usr_3", "disabled")
		require.NoError(t, err)

		assert.Equal(t, models.UserDisabled, user.Status)
		assert.Equal(t, "KEEP1234", user.AccessCode)

		for _, filter := range []string{"all", "active", "disabled"} {
			assert.False(t, mr.Exists(cache.UserViewKey(filter)), filter)
		}
		// request views are independent of user status changes
		for _, filter := range []string{"all", "pending", "approved", "rejected"} {
			assert.True(t, mr.Exists(cache.RequestViewKey(filter)), filter)
		}
	})

	t.Run("reactivation is symmetric", func(t *testing.T) {
		gw := &stubGateway{
			setStatusFn: func(ctx context.Context, id, status string) (*models.AccessUser, error) {
				assert.Equal(t, "active", status)
				return &models.AccessUser{ID: id, Status: models.UserActive, AccessCode: "KEEP1234"}, nil
			},
		}

		svc := NewUserService(gw)
		user, err := svc.SetStatus(context.Background(), "usr_3", "active")
		require.NoError(t, err)
		assert.Equal(t, models.UserActive, user.Status)
	})

	t.Run("unknown status is rejected without a call", func(t *testing.T) {
		called := false
		gw := &stubGateway{
			setStatusFn: func(ctx context.Context, id, status string) (*models.AccessUser, error) {
				called = true
				return nil, nil
			},
		}

		svc := NewUserService(gw)
		_, err := svc.SetStatus(context.Background(), "usr_3", "suspended")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		assert.False(t, called)
	})

	t.Run("blank id is rejected locally", func(t *testing.T) {
		svc := NewUserService(&stubGateway{})
		_, err := svc.SetStatus(context.Background(), "", "disabled")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})

	t.Run("upstream not found propagates", func(t *testing.T) {
		gw := &stubGateway{
			setStatusFn: func(ctx context.Context, id, status string) (*models.AccessUser, error) {
				return nil, models.NewUpstreamError(404, "usuario no encontrado")
			},
		}

		svc := NewUserService(gw)
		_, err := svc.SetStatus(context.Background(), "usr_404", "disabled")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.Status)
	})
}
