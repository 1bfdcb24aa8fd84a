package handlers

import (
	"team-access-service/internal/models"
	"team-access-service/internal/services"
	"team-access-service/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) Register(app *fiber.App) {
	group := app.Group(routePrefix + "/audit")

	group.Get("/", h.ListAll)
	group.Get("/user/:user_id", h.ListByUser)
	group.Get("/resource/:resource_id", h.ListByResource)
	group.Get("/action/:action", h.ListByAction)
}

func (h *AuditHandler) ListAll(c fiber.Ctx) error {
	logs, err := h.auditService.GetAll(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(logs))
}

func (h *AuditHandler) ListByUser(c fiber.Ctx) error {
	id, err := paramUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	logs, err := h.auditService.GetByUser(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(logs))
}

func (h *AuditHandler) ListByResource(c fiber.Ctx) error {
	id, err := paramUUID(c, "resource_id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	logs, err := h.auditService.GetByResource(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(logs))
}

func (h *AuditHandler) ListByAction(c fiber.Ctx) error {
	action := models.AuditAction(c.Params("action"))
	logs, err := h.auditService.GetByAction(c.Context(), action)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(logs))
}
