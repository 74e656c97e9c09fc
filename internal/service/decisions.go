package service

import (
	"context"
	"strings"

	"acceso/internal/cache"
	"acceso/internal/middleware"
	"acceso/internal/models"
	"acceso/internal/observability"
)

// DecisionGateway is the slice of the gateway client used by DecisionService.
type DecisionGateway interface {
	ApproveRequest(ctx context.Context, id string, input models.DecisionInput) (*models.AccessRequest, *models.AccessUser, error)
	RejectRequest(ctx context.Context, id string, input models.DecisionInput) (*models.AccessRequest, error)
}

// DecisionService executes admin decisions on pending requests. Each
// decision is a single upstream call; the access service is the arbiter of
// conflicts, so a request decided elsewhere comes back as an upstream error
// and is surfaced, never swallowed.
type DecisionService struct {
	gateway DecisionGateway
	audit   *observability.DecisionLogger
}

// NewDecisionService returns a new DecisionService.
func NewDecisionService(gateway DecisionGateway) *DecisionService {
	return &DecisionService{
		gateway: gateway,
		audit:   observability.NewDecisionLogger(),
	}
}

// Approve approves the request and returns the decided request together
// with the newly provisioned user carrying its access code. On success both
// request and user views are invalidated: approval changes both collections.
func (s *DecisionService) Approve(ctx context.Context, id string, input models.DecisionInput) (*models.DecisionResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError("request id is required")
	}

	request, user, err := s.gateway.ApproveRequest(ctx, id, input)
	if err != nil {
		recordUpstreamError(err)
		return nil, err
	}

	middleware.Decisions.WithLabelValues("approved").Inc()
	s.audit.LogDecision(ctx, id, "approved", input.DecidedBy)

	cache.InvalidateRequestViews(ctx)
	cache.InvalidateUserViews(ctx)

	return &models.DecisionResult{Request: request, User: user}, nil
}

// Reject rejects the request. No user is created, so only request views are
// invalidated.
func (s *DecisionService) Reject(ctx context.Context, id string, input models.DecisionInput) (*models.DecisionResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError("request id is required")
	}

	request, err := s.gateway.RejectRequest(ctx, id, input)
	if err != nil {
		recordUpstreamError(err)
		return nil, err
	}

	middleware.Decisions.WithLabelValues("rejected").Inc()
	s.audit.LogDecision(ctx, id, "rejected", input.DecidedBy)

	cache.InvalidateRequestViews(ctx)

	return &models.DecisionResult{Request: request}, nil
}
