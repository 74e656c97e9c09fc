package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"acceso/internal/config"
	"acceso/internal/credentials"
	"acceso/internal/gateway"
	"acceso/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubToken = "secreto-1234"

// accessStub is a minimal in-process stand-in for the remote access service.
// It records what the facade sent so tests can assert on headers and filters.
type accessStub struct {
	mu         sync.Mutex
	token      string
	hits       int
	lastStatus string
	lastToken  string
	lastAdmin  string
}

func (s *accessStub) snapshot() (hits int, status, token, admin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.lastStatus, s.lastToken, s.lastAdmin
}

func (s *accessStub) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Admin-Token") != s.token {
		writeJSON(w, http.StatusUnauthorized, fiber.Map{
			"error":   "unauthorized",
			"message": "Token admin inválido",
		})
		return false
	}
	return true
}

func (s *accessStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits++
		s.lastStatus = r.URL.Query().Get("status")
		s.lastToken = r.Header.Get("X-Admin-Token")
		s.lastAdmin = r.Header.Get("X-Admin-Name")
		s.mu.Unlock()

		now := time.Now().UTC()
		path := r.URL.Path

		switch {
		case path == "/api/health":
			writeJSON(w, http.StatusOK, fiber.Map{"status": "ok"})

		case path == "/api/access/requests" && r.Method == http.MethodPost:
			var input models.RequestInput
			_ = json.NewDecoder(r.Body).Decode(&input)
			writeJSON(w, http.StatusCreated, fiber.Map{"request": models.AccessRequest{
				ID:        "req-100",
				Name:      input.Name,
				Email:     input.Email,
				Role:      input.Role,
				Status:    models.RequestPending,
				CreatedAt: now,
				UpdatedAt: now,
			}})

		case path == "/api/access/requests" && r.Method == http.MethodGet:
			if !s.authorized(w, r) {
				return
			}
			items := []models.AccessRequest{
				{ID: "req-1", Name: "Ana", Email: "ana@ejemplo.com", Status: models.RequestPending, CreatedAt: now, UpdatedAt: now},
				{ID: "req-2", Name: "Bruno", Email: "bruno@ejemplo.com", Status: models.RequestPending, CreatedAt: now, UpdatedAt: now},
			}
			if r.URL.Query().Get("status") == "" {
				items = append(items,
					models.AccessRequest{ID: "req-3", Status: models.RequestApproved, CreatedAt: now, UpdatedAt: now},
					models.AccessRequest{ID: "req-4", Status: models.RequestRejected, CreatedAt: now, UpdatedAt: now},
				)
			}
			writeJSON(w, http.StatusOK, models.RequestList{Items: items, Total: len(items)})

		case strings.HasSuffix(path, "/approve"):
			if !s.authorized(w, r) {
				return
			}
			id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/access/requests/"), "/approve")
			if id == "req-decided" {
				writeJSON(w, http.StatusConflict, fiber.Map{
					"error":   "conflict",
					"message": "La solicitud ya fue decidida.",
				})
				return
			}
			writeJSON(w, http.StatusOK, fiber.Map{
				"request": models.AccessRequest{
					ID: id, Name: "Ana", Email: "ana@ejemplo.com",
					Status: models.RequestApproved, DecisionAt: &now,
					CreatedAt: now, UpdatedAt: now,
				},
				"user": models.AccessUser{
					ID: "usr-1", RequestID: id, Name: "Ana", Email: "ana@ejemplo.com",
					Status: models.UserActive, AccessCode: "AC-9F3K2",
					CreatedAt: now, UpdatedAt: now,
				},
			})

		case strings.HasSuffix(path, "/reject"):
			if !s.authorized(w, r) {
				return
			}
			id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/access/requests/"), "/reject")
			writeJSON(w, http.StatusOK, fiber.Map{
				"request": models.AccessRequest{
					ID: id, Status: models.RequestRejected, DecisionAt: &now,
					CreatedAt: now, UpdatedAt: now,
				},
			})

		case path == "/api/access/users" && r.Method == http.MethodGet:
			if !s.authorized(w, r) {
				return
			}
			writeJSON(w, http.StatusOK, models.UserList{
				Items: []models.AccessUser{
					{ID: "usr-1", Name: "Ana", Status: models.UserActive, AccessCode: "AC-9F3K2", CreatedAt: now, UpdatedAt: now},
				},
				Total: 1,
			})

		case strings.HasPrefix(path, "/api/access/users/") && r.Method == http.MethodPut:
			if !s.authorized(w, r) {
				return
			}
			id := strings.TrimPrefix(path, "/api/access/users/")
			if id == "missing" {
				writeJSON(w, http.StatusNotFound, fiber.Map{
					"error":   "not_found",
					"message": "Usuario no encontrado.",
				})
				return
			}
			var body struct {
				Status models.UserStatus `json:"status"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, fiber.Map{"user": models.AccessUser{
				ID: id, Name: "Ana", Status: body.Status, AccessCode: "AC-9F3K2",
				CreatedAt: now, UpdatedAt: now,
			}})

		default:
			writeJSON(w, http.StatusNotFound, fiber.Map{"error": "not_found"})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// newFacade wires a fiber app against the stub. An empty token leaves the
// admin session unconfigured.
func newFacade(t *testing.T, token, name string) (*fiber.App, *accessStub) {
	t.Helper()
	return newFacadeWithFlags(t, token, name, "")
}

func newFacadeWithFlags(t *testing.T, token, name, flags string) (*fiber.App, *accessStub) {
	t.Helper()

	stub := &accessStub{token: stubToken}
	upstream := httptest.NewServer(stub.handler())
	t.Cleanup(upstream.Close)

	store, err := credentials.Open(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, store.Save(token, name))
	}

	gw := gateway.New(upstream.URL, 5*time.Second, store)
	cfg := &config.Config{
		Port:            "8376",
		AccessAPIURL:    upstream.URL,
		SubmitRateLimit: 100,
		FeatureFlags:    flags,
	}
	srv, err := NewServerWithDeps(cfg, store, gw, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return app, stub
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var fields map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	return resp, fields
}

func TestSubmitAccessRequest_CreatesPendingRequest(t *testing.T) {
	app, _ := newFacade(t, "", "")

	input := models.RequestInput{
		Name:  "  " + gofakeit.Name() + "  ",
		Email: gofakeit.Email(),
		Role:  "analyst",
	}
	resp, fields := doJSON(t, app, http.MethodPost, "/api/access/requests", input)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.AccessRequest
	require.NoError(t, json.Unmarshal(fields["request"], &created))
	assert.Equal(t, models.RequestPending, created.Status)
	assert.Equal(t, strings.TrimSpace(input.Name), created.Name)
	assert.NotEmpty(t, created.ID)
}

func TestSubmitAccessRequest_InvalidEmailNeverReachesUpstream(t *testing.T) {
	app, stub := newFacade(t, "", "")

	resp, fields := doJSON(t, app, http.MethodPost, "/api/access/requests", models.RequestInput{
		Name:  gofakeit.Name(),
		Email: "sin-arroba",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"VALIDATION_ERROR"`, string(fields["code"]))
	assert.JSONEq(t, `"correo inválido"`, string(fields["error"]))

	hits, _, _, _ := stub.snapshot()
	assert.Zero(t, hits)
}

func TestSubmitAccessRequest_IntakeClosedFlag(t *testing.T) {
	app, stub := newFacadeWithFlags(t, "", "", "intake_closed=on")

	resp, fields := doJSON(t, app, http.MethodPost, "/api/access/requests", models.RequestInput{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
	})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `"INTAKE_CLOSED"`, string(fields["code"]))

	hits, _, _, _ := stub.snapshot()
	assert.Zero(t, hits)
}

func TestGetAccessRequests_MissingTokenFailsBeforeNetwork(t *testing.T) {
	app, stub := newFacade(t, "", "")

	resp, fields := doJSON(t, app, http.MethodGet, "/api/access/requests", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `"MISSING_CREDENTIAL"`, string(fields["code"]))
	assert.JSONEq(t, `"Token admin requerido"`, string(fields["error"]))

	hits, _, _, _ := stub.snapshot()
	assert.Zero(t, hits)
}

func TestGetAccessRequests_DefaultsToPending(t *testing.T) {
	app, stub := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodGet, "/api/access/requests", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var items []models.AccessRequest
	require.NoError(t, json.Unmarshal(fields["items"], &items))
	assert.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, models.RequestPending, item.Status)
	}

	_, status, token, _ := stub.snapshot()
	assert.Equal(t, "pending", status)
	assert.Equal(t, stubToken, token)
}

func TestGetAccessRequests_RejectsUnknownFilter(t *testing.T) {
	app, stub := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodGet, "/api/access/requests?status=archived", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"VALIDATION_ERROR"`, string(fields["code"]))

	hits, _, _, _ := stub.snapshot()
	assert.Zero(t, hits)
}

func TestGetAccessStats_CountsFromFullListing(t *testing.T) {
	app, stub := newFacade(t, stubToken, "Raúl")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/access/requests/stats", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/access/requests/stats", nil)
	respAgain, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = respAgain.Body.Close() }()

	var stats models.AccessStats
	require.NoError(t, json.NewDecoder(respAgain.Body).Decode(&stats))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)

	// Stats listings ask for everything, so no status filter goes upstream.
	_, status, _, _ := stub.snapshot()
	assert.Empty(t, status)
}

func TestApproveAccessRequest_ReturnsRequestAndUser(t *testing.T) {
	app, stub := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodPost, "/api/access/requests/req-1/approve",
		fiber.Map{"note": "bienvenida"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var request models.AccessRequest
	require.NoError(t, json.Unmarshal(fields["request"], &request))
	assert.Equal(t, models.RequestApproved, request.Status)
	assert.NotNil(t, request.DecisionAt)

	var user models.AccessUser
	require.NoError(t, json.Unmarshal(fields["user"], &user))
	assert.Equal(t, models.UserActive, user.Status)
	assert.NotEmpty(t, user.AccessCode)
	assert.Equal(t, "req-1", user.RequestID)

	_, _, token, admin := stub.snapshot()
	assert.Equal(t, stubToken, token)
	assert.Equal(t, "Raúl", admin)
}

func TestApproveAccessRequest_ConflictMessagePassesThrough(t *testing.T) {
	app, _ := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodPost, "/api/access/requests/req-decided/approve", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.JSONEq(t, `"UPSTREAM_ERROR"`, string(fields["code"]))
	assert.JSONEq(t, `"La solicitud ya fue decidida."`, string(fields["error"]))
}

func TestRejectAccessRequest_NoUserInResponse(t *testing.T) {
	app, _ := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodPost, "/api/access/requests/req-2/reject",
		fiber.Map{"note": "sin cupo"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var request models.AccessRequest
	require.NoError(t, json.Unmarshal(fields["request"], &request))
	assert.Equal(t, models.RequestRejected, request.Status)
	assert.NotContains(t, fields, "user")
}

func TestUpdateAccessUserStatus_DisableKeepsAccessCode(t *testing.T) {
	app, _ := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodPut, "/api/access/users/usr-1",
		fiber.Map{"status": "disabled"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.AccessUser
	require.NoError(t, json.Unmarshal(fields["user"], &user))
	assert.Equal(t, models.UserDisabled, user.Status)
	assert.Equal(t, "AC-9F3K2", user.AccessCode)
}

func TestUpdateAccessUserStatus_UnknownStatusStaysLocal(t *testing.T) {
	app, stub := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodPut, "/api/access/users/usr-1",
		fiber.Map{"status": "suspended"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `"VALIDATION_ERROR"`, string(fields["code"]))

	hits, _, _, _ := stub.snapshot()
	assert.Zero(t, hits)
}

func TestUpdateAccessUserStatus_NotFoundStatusPreserved(t *testing.T) {
	app, _ := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodPut, "/api/access/users/missing",
		fiber.Map{"status": "active"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `"Usuario no encontrado."`, string(fields["error"]))
}

func TestAdminSession_SaveUnlocksAdminCalls(t *testing.T) {
	app, _ := newFacade(t, "", "")

	// Unconfigured at first.
	resp, fields := doJSON(t, app, http.MethodGet, "/api/access/admin/session", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `false`, string(fields["configured"]))

	// Save the shared token; the response masks it.
	resp, fields = doJSON(t, app, http.MethodPut, "/api/access/admin/session",
		fiber.Map{"token": stubToken, "name": "Raúl"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `true`, string(fields["configured"]))
	assert.JSONEq(t, `"********1234"`, string(fields["token"]))
	assert.JSONEq(t, `"Raúl"`, string(fields["name"]))

	// The gateway reads the credential at call time, so the same process
	// can now list the inbox without a restart.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/access/requests", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReadinessCheck_ReportsUpstreamAndSession(t *testing.T) {
	app, _ := newFacade(t, stubToken, "Raúl")

	resp, fields := doJSON(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"healthy"`, string(fields["status"]))
	assert.JSONEq(t, `true`, string(fields["session_configured"]))
}
