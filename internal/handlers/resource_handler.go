package handlers

import (
	"log/slog"
	"net/http"

	"team-access-service/internal/models"
	"team-access-service/internal/services"
	"team-access-service/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type ResourceHandler struct {
	resourceService *services.ResourceService
}

func NewResourceHandler(resourceService *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

func (h *ResourceHandler) Register(app *fiber.App) {
	group := app.Group(routePrefix + "/resources")

	group.Post("/", h.Create) // POST /resources - COMMON resources auto-grant on create
	group.Get("/", h.ListAll)
	group.Get("/global", h.ListGlobal)
	group.Get("/project/:project_id", h.ListByProject)
	group.Get("/accessible/:user_id", h.ListAccessible)
	group.Get("/requestable/:user_id", h.ListRequestable)
	group.Get("/:id", h.Get)
	group.Delete("/:id", h.Delete)
	group.Patch("/:id/access-settings", h.UpdateAccessSettings)
	group.Patch("/:id/global", h.MakeGlobal)
	group.Patch("/:id/project/:project_id", h.AssignToProject)
	group.Delete("/:id/project", h.RemoveFromProject)
}

func (h *ResourceHandler) Create(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	var req models.CreateResourceRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	resource, err := h.resourceService.Create(c.Context(), actor, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(response.CreateSuccessResponse(resource))
}

func (h *ResourceHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	resource, err := h.resourceService.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resource))
}

func (h *ResourceHandler) Delete(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	if err := h.resourceService.Delete(c.Context(), actor, id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"deleted": true}))
}

func (h *ResourceHandler) UpdateAccessSettings(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	var req models.UpdateResourceAccessRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	resource, err := h.resourceService.UpdateAccessSettings(c.Context(), actor, id, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resource))
}

func (h *ResourceHandler) MakeGlobal(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	resource, err := h.resourceService.MakeGlobal(c.Context(), actor, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resource))
}

func (h *ResourceHandler) AssignToProject(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	projectID, err := paramUUID(c, "project_id")
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	resource, err := h.resourceService.AssignToProject(c.Context(), actor, id, projectID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resource))
}

func (h *ResourceHandler) RemoveFromProject(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	resource, err := h.resourceService.RemoveFromProject(c.Context(), actor, id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resource))
}

func (h *ResourceHandler) ListAll(c fiber.Ctx) error {
	resources, err := h.resourceService.ListAll(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resources))
}

func (h *ResourceHandler) ListGlobal(c fiber.Ctx) error {
	resources, err := h.resourceService.ListGlobal(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resources))
}

func (h *ResourceHandler) ListByProject(c fiber.Ctx) error {
	projectID, err := paramUUID(c, "project_id")
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	resources, err := h.resourceService.ListByProject(c.Context(), projectID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resources))
}

func (h *ResourceHandler) ListAccessible(c fiber.Ctx) error {
	userID, err := paramUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	resources, err := h.resourceService.ListAccessibleForUser(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resources))
}

func (h *ResourceHandler) ListRequestable(c fiber.Ctx) error {
	userID, err := paramUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	resources, err := h.resourceService.ListRequestableForUser(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(resources))
}
