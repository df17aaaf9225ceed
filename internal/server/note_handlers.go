package server

import (
	"time"

	"rendez/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Note handlers are a thin passthrough to the remote calendar event store,
// scoped to the calling user.

type noteBody struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// CreateNote handles POST /api/notes
func (s *Server) CreateNote(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	var body noteBody
	if err := c.BodyParser(&body); err != nil || body.Title == "" || body.Date.IsZero() {
		return models.RespondWithError(c, models.NewValidationError("title and date are required"))
	}

	event, err := s.calendar.CreateEvent(ctx, userID, models.EventData{
		Title:       body.Title,
		Description: body.Description,
		Date:        body.Date,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// ListNotes handles GET /api/notes; only the caller's events are returned.
func (s *Server) ListNotes(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	events, err := s.calendar.ListEvents(ctx)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	own := make([]models.Event, 0, len(events))
	for i := range events {
		if events[i].OwnerID == userID {
			own = append(own, events[i])
		}
	}
	return c.JSON(fiber.Map{"events": own})
}

// GetNote handles GET /api/notes/:id
func (s *Server) GetNote(c *fiber.Ctx) error {
	event, err := s.calendar.GetEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if event == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Event"))
	}
	if event.OwnerID != c.Locals("userID").(string) {
		return models.RespondWithError(c, models.NewForbiddenError("Not your event"))
	}
	return c.JSON(event)
}

// UpdateNote handles PATCH /api/notes/:id
func (s *Server) UpdateNote(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	existing, err := s.calendar.GetEvent(ctx, c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if existing == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Event"))
	}
	if existing.OwnerID != userID {
		return models.RespondWithError(c, models.NewForbiddenError("Not your event"))
	}

	var body noteBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid body"))
	}

	event, err := s.calendar.UpdateEvent(ctx, c.Params("id"), models.EventData{
		Title:       body.Title,
		Description: body.Description,
		Date:        body.Date,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if event == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Event"))
	}
	return c.JSON(event)
}

// DeleteNote handles DELETE /api/notes/:id
func (s *Server) DeleteNote(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	existing, err := s.calendar.GetEvent(ctx, c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if existing == nil {
		return models.RespondWithError(c, models.NewNotFoundError("Event"))
	}
	if existing.OwnerID != userID {
		return models.RespondWithError(c, models.NewForbiddenError("Not your event"))
	}

	if _, err := s.calendar.DeleteEvent(ctx, c.Params("id")); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
