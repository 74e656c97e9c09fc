package server

import (
	"acceso/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdminSession handles GET /api/access/admin/session
// @Summary Current admin session
// @Description Report whether an admin token is stored, with the display name and a masked token.
// @Tags admin-session
// @Produce json
// @Success 200 {object} object{configured=bool,name=string,token=string}
// @Router /access/admin/session [get]
func (s *Server) GetAdminSession(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"configured": s.session.Configured(),
		"name":       s.session.Name(),
		"token":      s.session.MaskedToken(),
	})
}

// SaveAdminSession handles PUT /api/access/admin/session
// @Summary Save admin session
// @Description Persist the shared admin token and display name. An empty token clears the session.
// @Tags admin-session
// @Accept json
// @Produce json
// @Param session body object{token=string,name=string} true "Session fields"
// @Success 200 {object} object{configured=bool,name=string,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /access/admin/session [put]
func (s *Server) SaveAdminSession(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.session.Save(body.Token, body.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"configured": s.session.Configured(),
		"name":       s.session.Name(),
		"token":      s.session.MaskedToken(),
	})
}
