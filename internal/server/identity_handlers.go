package server

import (
	"rendez/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createIdentityBody struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateIdentity handles POST /api/identities
func (s *Server) CreateIdentity(c *fiber.Ctx) error {
	var body createIdentityBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return models.RespondWithError(c, models.NewValidationError("A valid email is required"))
	}

	identity, err := s.identities.Create(c.UserContext(), body.Email, body.Name)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(identity)
}

// ListIdentities handles GET /api/identities
func (s *Server) ListIdentities(c *fiber.Ctx) error {
	identities, err := s.identities.List(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"identities": identities})
}

// GetIdentity handles GET /api/identities/:id
func (s *Server) GetIdentity(c *fiber.Ctx) error {
	identity, err := s.identities.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if identity == nil {
		return models.RespondWithError(c, models.NewNotFoundError("User"))
	}
	return c.JSON(identity)
}

// DeleteIdentity handles DELETE /api/identities/:id
func (s *Server) DeleteIdentity(c *fiber.Ctx) error {
	if err := s.identities.Delete(c.UserContext(), c.Params("id")); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
