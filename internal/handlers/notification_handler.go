package handlers

import (
	"team-access-service/internal/services"
	"team-access-service/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) Register(app *fiber.App) {
	group := app.Group(routePrefix + "/notifications")

	group.Get("/", h.List) // notifications of the acting user
	group.Get("/unread", h.ListUnread)
	group.Get("/unread/count", h.UnreadCount)
	group.Patch("/read-all", h.MarkAllRead)
	group.Patch("/:id/read", h.MarkRead)
}

func (h *NotificationHandler) List(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	notifications, err := h.notificationService.ListByUser(c.Context(), actor)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(notifications))
}

func (h *NotificationHandler) ListUnread(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	notifications, err := h.notificationService.ListUnread(c.Context(), actor)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(notifications))
}

func (h *NotificationHandler) UnreadCount(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	count, err := h.notificationService.UnreadCount(c.Context(), actor)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"unread_count": count}))
}

func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid notification id")
	}
	if err := h.notificationService.MarkRead(c.Context(), actor, id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"read": true}))
}

func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	if err := h.notificationService.MarkAllRead(c.Context(), actor); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"read": true}))
}
