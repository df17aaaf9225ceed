package server

import (
	"time"

	"rendez/internal/models"

	"github.com/gofiber/fiber/v2"
)

type sendFriendRequestBody struct {
	Email string `json:"email"`
}

// SendFriendRequest handles POST /api/friends/requests
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	var body sendFriendRequestBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return models.RespondWithError(c, models.NewValidationError("A valid email is required"))
	}

	result, err := s.friendService.SendFriendRequest(ctx, userID, body.Email)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if result.AutoAccepted {
		return c.JSON(fiber.Map{
			"message":       "Mutual friend request detected! You are now friends.",
			"friendship":    result.Friendship,
			"auto_accepted": true,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Friend request sent",
		"request": result.Request,
	})
}

// GetFriendRequests handles GET /api/friends/requests?direction=received|sent
func (s *Server) GetFriendRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	direction := models.RequestDirection(c.Query("direction", string(models.DirectionReceived)))
	if direction != models.DirectionSent && direction != models.DirectionReceived {
		return models.RespondWithError(c, models.NewValidationError("direction must be 'sent' or 'received'"))
	}

	requests, err := s.friendService.GetFriendRequests(ctx, userID, direction)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	return s.respondToRequest(c, true)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	return s.respondToRequest(c, false)
}

func (s *Server) respondToRequest(c *fiber.Ctx, accept bool) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)
	requestID := c.Params("requestId")
	if requestID == "" {
		return models.RespondWithError(c, models.NewValidationError("Invalid request ID"))
	}

	result, err := s.friendService.RespondToFriendRequest(ctx, userID, requestID, accept)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if result.Accepted {
		return c.JSON(fiber.Map{
			"message":    "Friend request accepted",
			"friendship": result.Friendship,
		})
	}
	return c.JSON(fiber.Map{"message": "Friend request rejected"})
}

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	friends, err := s.friendService.GetFriends(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"friends": friends})
}

// SearchUser handles GET /api/friends/search?email=
func (s *Server) SearchUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	email := c.Query("email")
	if email == "" {
		return models.RespondWithError(c, models.NewValidationError("email query parameter is required"))
	}

	result, err := s.friendService.SearchUserByEmail(ctx, userID, email)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

type checkAvailabilityBody struct {
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// CheckAvailability handles POST /api/friends/availability
func (s *Server) CheckAvailability(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	var body checkAvailabilityBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Date.IsZero() {
		return models.RespondWithError(c, models.NewValidationError("email and date are required"))
	}

	result, err := s.friendService.CheckAvailability(ctx, userID, body.Email, body.Date)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

type requestEventBody struct {
	Email       string    `json:"email"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// RequestCalendarEvent handles POST /api/friends/events
func (s *Server) RequestCalendarEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(string)

	var body requestEventBody
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Title == "" || body.Date.IsZero() {
		return models.RespondWithError(c, models.NewValidationError("email, title and date are required"))
	}

	result, err := s.friendService.RequestCalendarEvent(ctx, userID, body.Email, models.EventData{
		Title:       body.Title,
		Description: body.Description,
		Date:        body.Date,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if result.Request == nil {
		return c.JSON(fiber.Map{
			"message":      "Friend is not available on this date",
			"availability": result.Availability,
			"suggestion":   result.Suggestion,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Calendar event request sent to friend",
		"request":      result.Request,
		"availability": result.Availability,
	})
}
