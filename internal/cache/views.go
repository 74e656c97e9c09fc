package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	RequestViewPrefix = "access:requests:%s"
	UserViewPrefix    = "access:users:%s"
)

const (
	RequestViewTTL = 30 * time.Second
	UserViewTTL    = 30 * time.Second
)

// Filter variants are closed enums, so invalidation enumerates keys
// directly instead of scanning.
var (
	requestFilters = []string{"all", "pending", "approved", "rejected"}
	userFilters    = []string{"all", "active", "disabled"}
)

func RequestViewKey(filter string) string {
	return fmt.Sprintf(RequestViewPrefix, filter)
}

func UserViewKey(filter string) string {
	return fmt.Sprintf(UserViewPrefix, filter)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateRequestViews drops every cached request listing. Called after
// any mutation that can change request rows (submit, approve, reject).
func InvalidateRequestViews(ctx context.Context) {
	for _, filter := range requestFilters {
		Invalidate(ctx, RequestViewKey(filter))
	}
}

// InvalidateUserViews drops every cached user listing. Called after any
// mutation that can change user rows (approve, status update).
func InvalidateUserViews(ctx context.Context) {
	for _, filter := range userFilters {
		Invalidate(ctx, UserViewKey(filter))
	}
}
