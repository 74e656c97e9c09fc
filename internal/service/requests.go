// Package service implements the access workflow over the gateway client:
// request submission and listing, admin decisions, and user status changes,
// with view cache maintenance after every successful mutation.
package service

import (
	"context"
	"errors"
	"strings"

	"acceso/internal/cache"
	"acceso/internal/middleware"
	"acceso/internal/models"
	"acceso/internal/validation"
)

// RequestGateway is the slice of the gateway client used by RequestService.
type RequestGateway interface {
	SubmitRequest(ctx context.Context, input models.RequestInput) (*models.AccessRequest, error)
	ListRequests(ctx context.Context, status string) (*models.RequestList, error)
}

// RequestService handles submission and listing of access requests.
type RequestService struct {
	gateway RequestGateway
}

// NewRequestService returns a new RequestService.
func NewRequestService(gateway RequestGateway) *RequestService {
	return &RequestService{gateway: gateway}
}

// requestFilters is the closed set of acceptable list filters.
var requestFilters = map[string]struct{}{
	"all":      {},
	"pending":  {},
	"approved": {},
	"rejected": {},
}

// Submit validates the input locally and forwards it to the access service.
// Invalid input never reaches the network. A successful submission drops the
// cached request views so the new pending row shows up on the next read.
func (s *RequestService) Submit(ctx context.Context, input models.RequestInput) (*models.AccessRequest, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Role = strings.TrimSpace(input.Role)
	input.Organization = strings.TrimSpace(input.Organization)
	input.Message = strings.TrimSpace(input.Message)

	if err := validation.ValidateRequestName(input.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMessage(input.Message); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	request, err := s.gateway.SubmitRequest(ctx, input)
	if err != nil {
		recordUpstreamError(err)
		return nil, err
	}

	cache.InvalidateRequestViews(ctx)
	return request, nil
}

// List returns the requests matching filter, served cache-aside. An empty
// filter defaults to pending, mirroring the admin inbox.
func (s *RequestService) List(ctx context.Context, filter string) (*models.RequestList, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "pending"
	}
	if _, ok := requestFilters[filter]; !ok {
		return nil, models.NewValidationError("status must be one of: all, pending, approved, rejected")
	}

	var list models.RequestList
	err := cache.CacheAside(ctx, cache.RequestViewKey(filter), &list, cache.RequestViewTTL, func() error {
		fetched, err := s.gateway.ListRequests(ctx, filter)
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

// Stats recomputes the per-status counts from the full request collection.
// It never patches counts incrementally, so a stale decision elsewhere can
// only make the numbers old, not wrong.
func (s *RequestService) Stats(ctx context.Context) (*models.AccessStats, error) {
	list, err := s.List(ctx, "all")
	if err != nil {
		return nil, err
	}
	stats := models.ComputeStats(list.Items)
	return &stats, nil
}

func recordUpstreamError(err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		middleware.UpstreamErrors.WithLabelValues(appErr.Code).Inc()
	}
}
