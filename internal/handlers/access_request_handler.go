package handlers

import (
	"log/slog"
	"net/http"

	"team-access-service/internal/models"
	"team-access-service/internal/services"
	"team-access-service/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type AccessRequestHandler struct {
	requestService *services.AccessRequestService
}

func NewAccessRequestHandler(requestService *services.AccessRequestService) *AccessRequestHandler {
	return &AccessRequestHandler{requestService: requestService}
}

func (h *AccessRequestHandler) Register(app *fiber.App) {
	group := app.Group(routePrefix + "/requests")

	group.Post("/", h.Submit)                   // POST   /requests - file a new access request
	group.Get("/pending", h.ListPending)        // GET    /requests/pending - all pending, oldest first
	group.Get("/:id", h.Get)                    // GET    /requests/:id
	group.Patch("/:id", h.Update)               // PATCH  /requests/:id - edit justification / validity
	group.Delete("/:id", h.Delete)              // DELETE /requests/:id - administrative cleanup
	group.Post("/:id/approve", h.Approve)       // POST   /requests/:id/approve
	group.Post("/:id/reject", h.Reject)         // POST   /requests/:id/reject
	group.Get("/user/:user_id", h.ListByUser)   // GET    /requests/user/:user_id
	group.Get("/user/:user_id/pending", h.ListPendingForUser)
	group.Get("/resource/:resource_id", h.ListByResource)
	group.Get("/project/:project_id", h.ListByProject)
	group.Get("/project/:project_id/pending", h.ListPendingForProject)
	group.Get("/manager/:manager_id", h.ListByManager)
	group.Get("/manager/:manager_id/pending", h.ListPendingForManager)
	group.Get("/status/:status", h.ListByStatus)
}

func (h *AccessRequestHandler) Submit(c fiber.Ctx) error {
	var req models.SubmitAccessRequest
	if err := c.Bind().Body(&req); err != nil {
		slog.Error("error parsing request", "error", err)
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	request, err := h.requestService.Submit(c.Context(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(response.CreateSuccessResponse(request))
}

func (h *AccessRequestHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid request id")
	}
	request, err := h.requestService.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(request))
}

func (h *AccessRequestHandler) Update(c fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid request id")
	}
	var req models.UpdateAccessRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	request, err := h.requestService.Update(c.Context(), actor, id, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(request))
}

func (h *AccessRequestHandler) Delete(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid request id")
	}
	if err := h.requestService.Delete(c.Context(), id); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(fiber.Map{"deleted": true}))
}

func (h *AccessRequestHandler) Approve(c fiber.Ctx) error {
	return h.decide(c, true)
}

func (h *AccessRequestHandler) Reject(c fiber.Ctx) error {
	return h.decide(c, false)
}

func (h *AccessRequestHandler) decide(c fiber.Ctx, approve bool) error {
	actor, err := actorID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid request id")
	}
	var req models.DecideAccessRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	var request *models.AccessRequest
	if approve {
		request, err = h.requestService.Approve(c.Context(), id, actor, req.Comments)
	} else {
		request, err = h.requestService.Reject(c.Context(), id, actor, req.Comments)
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(request))
}

func (h *AccessRequestHandler) ListPending(c fiber.Ctx) error {
	requests, err := h.requestService.ListPending(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListByUser(c fiber.Ctx) error {
	id, err := paramUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	requests, err := h.requestService.ListByUser(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListPendingForUser(c fiber.Ctx) error {
	id, err := paramUUID(c, "user_id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	requests, err := h.requestService.ListPendingForUser(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListByResource(c fiber.Ctx) error {
	id, err := paramUUID(c, "resource_id")
	if err != nil {
		return badRequest(c, "invalid resource id")
	}
	requests, err := h.requestService.ListByResource(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListByProject(c fiber.Ctx) error {
	id, err := paramUUID(c, "project_id")
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	requests, err := h.requestService.ListByProject(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListPendingForProject(c fiber.Ctx) error {
	id, err := paramUUID(c, "project_id")
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	requests, err := h.requestService.ListPendingForProject(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListByManager(c fiber.Ctx) error {
	id, err := paramUUID(c, "manager_id")
	if err != nil {
		return badRequest(c, "invalid manager id")
	}
	requests, err := h.requestService.ListByManager(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListPendingForManager(c fiber.Ctx) error {
	id, err := paramUUID(c, "manager_id")
	if err != nil {
		return badRequest(c, "invalid manager id")
	}
	requests, err := h.requestService.ListPendingForManager(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}

func (h *AccessRequestHandler) ListByStatus(c fiber.Ctx) error {
	status := models.RequestStatus(c.Params("status"))
	switch status {
	case models.RequestPending, models.RequestApproved, models.RequestRejected, models.RequestExpired:
	default:
		return badRequest(c, "invalid status")
	}
	requests, err := h.requestService.ListByStatus(c.Context(), status)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(response.CreateSuccessResponse(requests))
}
