package handlers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/service"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

const attachmentsField = "attachments"

func identityFrom(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return identity, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// formUploads collects the attachments of a multipart request. Non-multipart
// requests carry none.
func formUploads(c *fiber.Ctx) ([]service.AttachmentUpload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	files := form.File[attachmentsField]
	uploads := make([]service.AttachmentUpload, 0, len(files))
	for _, header := range files {
		uploads = append(uploads, service.AttachmentUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get(fiber.HeaderContentType),
			Size:        header.Size,
			Open:        opener(header),
		})
	}
	return uploads, nil
}

func opener(header *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		return file, nil
	}
}

// queryInt parses an optional positive integer query parameter.
func queryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(key+" must be an integer", map[string]any{"field": key})
	}
	return value, nil
}
