package handlers

import (
	"strconv"

	"github.com/drifthq/driftchat-backend/internal/cache"
	"github.com/drifthq/driftchat-backend/internal/httpx"
	"github.com/drifthq/driftchat-backend/internal/models"
	"github.com/drifthq/driftchat-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService   *service.UserService
	presenceCache *cache.PresenceCache
}

func NewUserHandler(userService *service.UserService, presenceCache *cache.PresenceCache) *UserHandler {
	return &UserHandler{userService: userService, presenceCache: presenceCache}
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	targetID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_user_id", "Invalid user id")
	}

	user, err := h.userService.GetUserByID(targetID)
	if err != nil {
		return httpx.NotFound(c, "user_not_found", "User not found")
	}

	response := user.ToResponse()
	// Redis presence is fresher than the DB flag when both are available.
	if h.presenceCache.IsUserOnline(targetID) {
		response.IsOnline = true
	}
	return c.JSON(response)
}

// SearchUsers finds conversation partners by username or full name.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	query := c.Query("q")
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	users, err := h.userService.SearchUsers(query, limit)
	if err != nil {
		return httpx.Internal(c, "search_failed")
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return c.JSON(fiber.Map{"users": responses})
}
