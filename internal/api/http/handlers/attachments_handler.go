package handlers

import (
	"mime"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/service"
)

// AttachmentsHandler streams stored ticket and comment files.
type AttachmentsHandler struct {
	service *service.TicketService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(ticketService *service.TicketService) *AttachmentsHandler {
	return &AttachmentsHandler{service: ticketService}
}

// Download GET /attachments/*.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		key = c.Params("*")
	}
	attachment, body, err := h.service.OpenAttachment(c.UserContext(), identity, key)
	if err != nil {
		return err
	}

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{
		"filename": attachment.OriginalName,
	}))
	size := int(attachment.Size)
	if size <= 0 {
		size = -1
	}
	return c.SendStream(body, size)
}
