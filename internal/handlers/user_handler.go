package handlers

import (
	"errors"
	"strconv"

	"userreg/internal/models"
	"userreg/internal/services"
	"userreg/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgUserNotFound = "User not found"
	MsgEmailTaken   = "Email already registered"
	MsgServerError  = "Server error"
	MsgInvalidBody  = "Invalid request body"
	MsgUserUpdated  = "User updated successfully"
	MsgUserDeleted  = "User deleted successfully"
)

// UserHandler handles HTTP requests for user records.
type UserHandler struct {
	service *services.UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Put("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleListUsers retrieves all users.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(users)
}

// HandleGetUser retrieves a single user by its ID.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return h.writeError(c, services.ErrUserNotFound)
	}
	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(user)
}

// HandleCreateUser creates a new user.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var in models.UserInput
	if err := c.BodyParser(&in); err != nil {
		h.logger.Debug("invalid create body", zap.Error(err))
		return invalidBody(c)
	}

	user, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleUpdateUser updates an existing user. An empty password keeps the
// current one.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return h.writeError(c, services.ErrUserNotFound)
	}

	var in models.UserInput
	if err := c.BodyParser(&in); err != nil {
		h.logger.Debug("invalid update body", zap.Uint("user_id", id), zap.Error(err))
		return invalidBody(c)
	}

	user, err := h.service.Update(c.UserContext(), id, in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": MsgUserUpdated,
		"user":    user,
	})
}

// HandleDeleteUser deletes a user by its ID.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return h.writeError(c, services.ErrUserNotFound)
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": MsgUserDeleted,
	})
}

// writeError maps service errors onto statuses. Internal detail was already
// logged by the service and is never written to the response.
func (h *UserHandler) writeError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": verr.Violations,
		})
	case errors.Is(err, services.ErrEmailTaken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": MsgEmailTaken,
		})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": MsgUserNotFound,
		})
	}
	if !errors.Is(err, services.ErrInternal) {
		h.logger.Error("unexpected service error", zap.String("path", utils.CopyString(c.Path())), zap.Error(err))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": MsgServerError,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": []validation.Violation{{Type: "body", Msg: MsgInvalidBody, Location: "body"}},
	})
}

// userID parses the :id route parameter. Anything that is not a positive
// integer cannot name a record.
func userID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
