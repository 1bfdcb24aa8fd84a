package handlers

import (
	"log/slog"
	"net/http"

	"team-access-service/internal/models"
	"team-access-service/internal/services"
	"team-access-service/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PermissionHandler struct {
	permissionService *services.PermissionService
	decisionService   *services.AccessDecisionService
}

func NewPermissionHandler(permissionService *services.PermissionService, decisionService *services.AccessDecisionService) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
		decisionService:   decisionService,
	}
}

func (h *PermissionHandler) Register(app *fiber.App) {
	group := app.Group(routePrefix + "/permissions")

	group.Post("/", h.Grant) // POST /permissions - direct grant
	group.Get("/active", h.ListActive)
	group.Get("/expired", h.ListExpired)
	group.Get("/user/:user_id", h.ListByUser)
	group.Get("/resource/:resource_id", h.ListByResource)
	group.Get("/user/:user_id/resource/:resource_id", h.GetByPair)
	group.Delete("/user/:user_id/resource/:resource_id", h.Revoke)
	group.Patch("/user/:user_id/resource/:resource_id/activate", h.Activate)
	group.Patch("/user/:user_id/resource/:resource_id/extend", h.Extend)
	group.Patch("/user/:user_id/resource/:resource_id/permanent", h.MakePermanent)

	checks := app.Group(routePrefix + "/access-checks")
	checks.Get("/user/:user_id/resource/:resource_id", h.Check)                // access decision
	checks.Get("/user/:user_id/resource/:resource_id/level/:level", h.CheckLevel)
	checks.Get("/user/:user_id/resource/:resource_id/access-level", h.AccessLevel)
}

func (h *PermissionHandler) Grant(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	var req models.GrantPermissionRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	permission, err := h.permissionService.Grant(c.Context(), actor, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(response.CreateSuccessResponse(permission))
}

func (h *PermissionHandler) pairParams(c fiber.Ctx) (userID, resourceID uuid.UUID, ok bool) {
	uid, err := paramUUID(c, "user_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	rid, err := paramUUID(c, "resource_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return uid, rid, true
}

func (h *PermissionHandler) Revoke(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	if err := h.permissionService.Revoke(c.Context(), actor, uid, rid); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"revoked": true}))
}

func (h *PermissionHandler) Activate(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	if err := h.permissionService.Activate(c.Context(), actor, uid, rid); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"activated": true}))
}

func (h *PermissionHandler) Extend(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	var req models.ExtendPermissionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	permission, err := h.permissionService.Extend(c.Context(), actor, uid, rid, req.ExpiresAt)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permission))
}

func (h *PermissionHandler) MakePermanent(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	permission, err := h.permissionService.MakePermanent(c.Context(), actor, uid, rid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permission))
}

func (h *PermissionHandler) GetByPair(c fiber.Ctx) error {
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	permission, err := h.permissionService.GetByPair(c.Context(), uid, rid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permission))
}

func (h *PermissionHandler) ListByUser(c fiber.Ctx) error {
	id, err := paramUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	permissions, err := h.permissionService.ListByUser(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permissions))
}

func (h *PermissionHandler) ListByResource(c fiber.Ctx) error {
	id, err := paramUUID(c, "resource_id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	permissions, err := h.permissionService.ListByResource(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permissions))
}

func (h *PermissionHandler) ListActive(c fiber.Ctx) error {
	permissions, err := h.permissionService.ListActive(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permissions))
}

func (h *PermissionHandler) ListExpired(c fiber.Ctx) error {
	permissions, err := h.permissionService.ListExpired(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(permissions))
}

func (h *PermissionHandler) Check(c fiber.Ctx) error {
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	decision, err := h.decisionService.Decide(c.Context(), uid, rid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(decision))
}

func (h *PermissionHandler) CheckLevel(c fiber.Ctx) error {
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	level := models.AccessLevel(c.Params("level"))
	if !level.Valid() {
		return badRequest(c, "invalid access level")
	}
	covered, err := h.decisionService.HasPermissionLevel(c.Context(), uid, rid, level)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"has_level": covered}))
}

func (h *PermissionHandler) AccessLevel(c fiber.Ctx) error {
	uid, rid, ok := h.pairParams(c)
	if !ok {
		return badRequest(c, "invalid user or resource id")
	}
	level, err := h.decisionService.UserAccessLevel(c.Context(), uid, rid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"access_level": level}))
}
