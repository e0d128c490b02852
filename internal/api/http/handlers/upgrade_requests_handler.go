package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/api/dto"
	"github.com/quickdesk/helpdesk-api/internal/service"
)

// UpgradeRequestsHandler exposes the role upgrade workflow.
type UpgradeRequestsHandler struct {
	service *service.UpgradeService
}

// NewUpgradeRequestsHandler constructs handler.
func NewUpgradeRequestsHandler(upgradeService *service.UpgradeService) *UpgradeRequestsHandler {
	return &UpgradeRequestsHandler{service: upgradeService}
}

// Create POST /upgrade-requests.
func (h *UpgradeRequestsHandler) Create(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpgradeRequestPayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	request, err := h.service.Create(c.UserContext(), identity, service.UpgradeRequestInput{
		CurrentRole:   req.CurrentRole,
		RequestedRole: req.RequestedRole,
		Reason:        req.Reason,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUpgradeRequest(*request)})
}

// List GET /upgrade-requests.
func (h *UpgradeRequestsHandler) List(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	requests, err := h.service.List(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUpgradeRequests(requests)})
}

// Mine GET /upgrade-requests/my-requests.
func (h *UpgradeRequestsHandler) Mine(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	requests, err := h.service.Mine(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUpgradeRequests(requests)})
}

// Review PUT /upgrade-requests/:id.
func (h *UpgradeRequestsHandler) Review(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpgradeReviewPayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	request, err := h.service.Review(c.UserContext(), identity, c.Params("id"), service.UpgradeReviewInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUpgradeRequest(*request)})
}
