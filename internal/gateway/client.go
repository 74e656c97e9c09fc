// Package gateway is the typed HTTP client for the remote access service.
// It owns header construction, error translation and nothing else: no
// caching, no retries, one round-trip per call.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"acceso/internal/models"
	"acceso/internal/observability"
)

// User-facing fallback messages, used when an error response carries no
// parseable message of its own.
const (
	fallbackSubmit     = "No se pudo enviar la solicitud."
	fallbackInbox      = "No se pudo cargar la bandeja."
	fallbackApprove    = "No se pudo aprobar la solicitud."
	fallbackReject     = "No se pudo rechazar la solicitud."
	fallbackUsers      = "No se pudo cargar los usuarios."
	fallbackUserUpdate = "No se pudo actualizar el usuario."
	fallbackHealth     = "No se pudo verificar el servicio."
)

// TokenSource supplies the shared admin credential for privileged calls.
// Implemented by credentials.Store.
type TokenSource interface {
	Token() string
	Name() string
}

// Health is the access service health payload.
type Health struct {
	Status string `json:"status"`
}

// Client talks to one access service instance.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	tracer  trace.Tracer
	log     *observability.GatewayLogger
}

// New returns a Client for the access service at baseURL. Admin calls pull
// their credential from tokens at call time, so a session saved after
// construction is picked up without a restart.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		tracer:  otel.Tracer("acceso/gateway"),
		log:     observability.NewGatewayLogger(),
	}
}

// SubmitRequest creates a new access request. Public: no admin headers.
func (c *Client) SubmitRequest(ctx context.Context, input models.RequestInput) (*models.AccessRequest, error) {
	var out struct {
		Request *models.AccessRequest `json:"request"`
	}
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/access/requests",
		body:     input,
		fallback: fallbackSubmit,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

// ListRequests lists access requests, optionally filtered by status.
// An empty status returns every request.
func (c *Client) ListRequests(ctx context.Context, status string) (*models.RequestList, error) {
	var out models.RequestList
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/api/access/requests",
		query:    statusQuery(status),
		admin:    true,
		fallback: fallbackInbox,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveRequest approves a pending request. The access service performs the
// transition and user creation atomically; the returned user carries the
// minted access code.
func (c *Client) ApproveRequest(ctx context.Context, id string, input models.DecisionInput) (*models.AccessRequest, *models.AccessUser, error) {
	var out struct {
		Request *models.AccessRequest `json:"request"`
		User    *models.AccessUser    `json:"user"`
	}
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/access/requests/" + url.PathEscape(id) + "/approve",
		body:     input,
		admin:    true,
		fallback: fallbackApprove,
	}, &out)
	if err != nil {
		return nil, nil, err
	}
	return out.Request, out.User, nil
}

// RejectRequest rejects a pending request. No user is created.
func (c *Client) RejectRequest(ctx context.Context, id string, input models.DecisionInput) (*models.AccessRequest, error) {
	var out struct {
		Request *models.AccessRequest `json:"request"`
	}
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/api/access/requests/" + url.PathEscape(id) + "/reject",
		body:     input,
		admin:    true,
		fallback: fallbackReject,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

// ListUsers lists provisioned users, optionally filtered by status.
func (c *Client) ListUsers(ctx context.Context, status string) (*models.UserList, error) {
	var out models.UserList
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/api/access/users",
		query:    statusQuery(status),
		admin:    true,
		fallback: fallbackUsers,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserStatus activates or disables a user. The access code is never
// touched by this call.
func (c *Client) UpdateUserStatus(ctx context.Context, id, status string) (*models.AccessUser, error) {
	var out struct {
		User *models.AccessUser `json:"user"`
	}
	err := c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/api/access/users/" + url.PathEscape(id),
		body:     map[string]string{"status": status},
		admin:    true,
		fallback: fallbackUserUpdate,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// Health probes the access service. Public.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/api/health",
		fallback: fallbackHealth,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type call struct {
	method   string
	path     string
	query    url.Values
	body     interface{}
	admin    bool
	fallback string
}

func (c *Client) do(ctx context.Context, req call, out interface{}) error {
	ctx = observability.WithCorrelationID(ctx, observability.GenerateCorrelationID())

	ctx, span := c.tracer.Start(ctx, "gateway."+req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.method),
			attribute.String("http.route", req.path),
		))
	defer span.End()

	start := time.Now()
	err := c.roundTrip(ctx, req, out)
	c.log.LogCall(ctx, req.method+" "+req.path, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, req call, out interface{}) error {
	var token, name string
	if req.admin {
		// fail before any network I/O when no credential is stored
		token = strings.TrimSpace(c.tokens.Token())
		if token == "" {
			return models.NewMissingCredentialError()
		}
		name = strings.TrimSpace(c.tokens.Name())
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return models.NewInternalError(fmt.Errorf("encode request body: %w", err))
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return models.NewInternalError(err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Correlation-ID", observability.ExtractCorrelationID(ctx))
	if req.admin {
		httpReq.Header.Set("X-Admin-Token", token)
		if name != "" {
			httpReq.Header.Set("X-Admin-Name", name)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.NewConnectivityError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.NewConnectivityError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.NewUpstreamError(resp.StatusCode, errorMessage(data, req.fallback))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return models.NewUpstreamError(resp.StatusCode, req.fallback)
	}
	return nil
}

// errorMessage extracts the server-provided message from an error body,
// preferring "message" over "error", falling back when neither parses.
func errorMessage(data []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	return fallback
}

func statusQuery(status string) url.Values {
	status = strings.TrimSpace(status)
	if status == "" || status == "all" {
		return nil
	}
	return url.Values{"status": []string{status}}
}
