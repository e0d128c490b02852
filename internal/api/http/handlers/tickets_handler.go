package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/api/dto"
	"github.com/quickdesk/helpdesk-api/internal/service"
)

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", service.DefaultPageSize)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.UserContext(), identity, service.ListTicketsInput{
		Status:        c.Query("status"),
		CategoryID:    c.Query("category"),
		Priority:      c.Query("priority"),
		Search:        c.Query("search"),
		MyTicketsOnly: strings.EqualFold(c.Query("myTickets"), "true"),
		SortBy:        c.Query("sortBy"),
		SortOrder:     c.Query("sortOrder"),
		Page:          page,
		PageSize:      limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketPage(result, identity.ID)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	uploads, err := formUploads(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), identity, service.CreateTicketInput{
		Subject:     req.Subject,
		Description: req.Description,
		CategoryID:  req.Category,
		Priority:    req.Priority,
		Tags:        splitTags(req.Tags),
	}, uploads)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicket(*ticket, identity.ID)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicket(*ticket, identity.ID)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistory(entries)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicket(*ticket, identity.ID)})
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.PriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangePriority(c.UserContext(), identity, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicket(*ticket, identity.ID)})
}

// Assign PATCH /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Assign(c.UserContext(), identity, c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicket(*ticket, identity.ID)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	uploads, err := formUploads(c)
	if err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), identity, c.Params("id"), service.CommentInput{
		Message:    req.Message,
		IsInternal: req.IsInternal,
	}, uploads)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComment(*comment)})
}

// Vote POST /tickets/:id/vote.
func (h *TicketsHandler) Vote(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	var req dto.VoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tally, err := h.service.Vote(c.UserContext(), identity, c.Params("id"), req.Type)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VoteResponse{
		Upvotes:   tally.Upvotes,
		Downvotes: tally.Downvotes,
		UserVote:  tally.UserVote,
	}})
}

// splitTags accepts repeated tag fields as well as one comma separated value.
func splitTags(raw []string) []string {
	var tags []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
	}
	return tags
}
