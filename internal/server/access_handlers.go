package server

import (
	"acceso/internal/middleware"
	"acceso/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SubmitAccessRequest handles POST /api/access/requests
// @Summary Submit an access request
// @Description Create a new pending access request. Public, rate limited per IP.
// @Tags access-requests
// @Accept json
// @Produce json
// @Param request body models.RequestInput true "Request fields"
// @Success 201 {object} object{request=models.AccessRequest}
// @Failure 400 {object} models.ErrorResponse
// @Router /access/requests [post]
func (s *Server) SubmitAccessRequest(c *fiber.Ctx) error {
	// Operational kill switch: close the intake without a redeploy.
	if s.flags.Enabled("intake_closed", c.IP()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "La recepción de solicitudes está temporalmente cerrada.",
			Code:  "INTAKE_CLOSED",
		})
	}

	var input models.RequestInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.Submit(c.UserContext(), input)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

// GetAccessRequests handles GET /api/access/requests
// @Summary List access requests
// @Description List access requests by status. Defaults to pending.
// @Tags access-requests
// @Produce json
// @Param status query string false "Filter status (all, pending, approved, rejected)"
// @Success 200 {object} models.RequestList
// @Failure 400 {object} models.ErrorResponse
// @Router /access/requests [get]
func (s *Server) GetAccessRequests(c *fiber.Ctx) error {
	list, err := s.requestService.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// GetAccessStats handles GET /api/access/requests/stats
// @Summary Access request statistics
// @Description Per-status counts recomputed from the full request collection.
// @Tags access-requests
// @Produce json
// @Success 200 {object} models.AccessStats
// @Router /access/requests/stats [get]
func (s *Server) GetAccessStats(c *fiber.Ctx) error {
	stats, err := s.requestService.Stats(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// ApproveAccessRequest handles POST /api/access/requests/:id/approve
// @Summary Approve access request
// @Description Approve a pending request. The access service creates the user and mints its access code atomically.
// @Tags access-requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body object{note=string} false "Optional decision note"
// @Success 200 {object} object{request=models.AccessRequest,user=models.AccessUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /access/requests/{id}/approve [post]
func (s *Server) ApproveAccessRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	input, ok := s.decisionBody(c)
	if !ok {
		return nil
	}

	ctx := middleware.WithAdminName(c.UserContext(), input.DecidedBy)
	result, err := s.decisionService.Approve(ctx, id, input)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"request": result.Request, "user": result.User})
}

// RejectAccessRequest handles POST /api/access/requests/:id/reject
// @Summary Reject access request
// @Description Reject a pending request. No user is created.
// @Tags access-requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body object{note=string} false "Optional decision note"
// @Success 200 {object} object{request=models.AccessRequest}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /access/requests/{id}/reject [post]
func (s *Server) RejectAccessRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	input, ok := s.decisionBody(c)
	if !ok {
		return nil
	}

	ctx := middleware.WithAdminName(c.UserContext(), input.DecidedBy)
	result, err := s.decisionService.Reject(ctx, id, input)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"request": result.Request})
}

// decisionBody parses the optional decision note and stamps the decision
// with the locally stored admin display name. On a parse failure it writes
// the 400 response and returns ok=false.
func (s *Server) decisionBody(c *fiber.Ctx) (models.DecisionInput, bool) {
	var body struct {
		Note string `json:"note"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
			return models.DecisionInput{}, false
		}
	}
	return models.DecisionInput{
		Note:      body.Note,
		DecidedBy: s.session.Name(),
	}, true
}

// GetAccessUsers handles GET /api/access/users
// @Summary List access users
// @Description List provisioned users by status. Defaults to all.
// @Tags access-users
// @Produce json
// @Param status query string false "Filter status (all, active, disabled)"
// @Success 200 {object} models.UserList
// @Failure 400 {object} models.ErrorResponse
// @Router /access/users [get]
func (s *Server) GetAccessUsers(c *fiber.Ctx) error {
	list, err := s.userService.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// UpdateAccessUserStatus handles PUT /api/access/users/:id
// @Summary Update user status
// @Description Activate or disable a user. The access code is never changed.
// @Tags access-users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body object{status=string} true "New status"
// @Success 200 {object} object{user=models.AccessUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /access/users/{id} [put]
func (s *Server) UpdateAccessUserStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.SetStatus(c.UserContext(), id, body.Status)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"user": user})
}
