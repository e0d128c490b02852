package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

// Upload limits.
const (
	MaxTicketAttachments  = 5
	MaxCommentAttachments = 3
	MaxAttachmentBytes    = 10 * 1024 * 1024
)

var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {},
}

// AttachmentStore is the object storage the service writes uploads to.
type AttachmentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// AttachmentUpload is one uploaded file awaiting storage.
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func validateUploads(uploads []AttachmentUpload, max int) error {
	if len(uploads) > max {
		return apperrors.NewValidationError(fmt.Sprintf("at most %d attachments allowed", max), map[string]any{
			"field": "attachments",
		})
	}
	for _, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.Filename))
		if _, ok := allowedExtensions[ext]; !ok {
			return apperrors.NewValidationError("invalid file type", map[string]any{
				"field":    "attachments",
				"filename": upload.Filename,
			})
		}
		if upload.Size > MaxAttachmentBytes {
			return apperrors.NewValidationError("attachment exceeds 10MB limit", map[string]any{
				"field":    "attachments",
				"filename": upload.Filename,
			})
		}
		if upload.Open == nil {
			return apperrors.NewValidationError("attachment has no content", map[string]any{
				"field":    "attachments",
				"filename": upload.Filename,
			})
		}
	}
	return nil
}

// attachmentWriter stores uploads under a prefix and can undo what it wrote.
type attachmentWriter struct {
	store  AttachmentStore
	logger *zap.Logger
	stored []string
}

func (w *attachmentWriter) storeAll(ctx context.Context, prefix string, uploads []AttachmentUpload) ([]domain.Attachment, error) {
	result := make([]domain.Attachment, 0, len(uploads))
	if len(uploads) == 0 {
		return result, nil
	}
	if w.store == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("attachment storage not configured"))
	}
	for _, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.Filename))
		filename := uuid.NewString() + ext
		key := prefix + "/" + filename
		contentType := upload.ContentType
		if contentType == "" || contentType == "application/octet-stream" {
			if byExt := mime.TypeByExtension(ext); byExt != "" {
				contentType = byExt
			}
		}

		body, err := upload.Open()
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		err = w.store.Put(ctx, key, body, upload.Size, contentType)
		_ = body.Close()
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("store attachment: %w", err))
		}
		w.stored = append(w.stored, key)
		result = append(result, domain.Attachment{
			Filename:     filename,
			OriginalName: filepath.Base(upload.Filename),
			StoragePath:  key,
			ContentType:  contentType,
			Size:         upload.Size,
		})
	}
	return result, nil
}

// rollback deletes everything stored so far. Used when the database write fails.
func (w *attachmentWriter) rollback() {
	for _, key := range w.stored {
		if err := w.store.Delete(context.Background(), key); err != nil {
			w.logger.Warn("attachment cleanup failed", zap.String("key", key), zap.Error(err))
		}
	}
	w.stored = nil
}

func ticketAttachmentPrefix(ticketID string) string {
	return "tickets/" + ticketID
}

func commentAttachmentPrefix(ticketID string) string {
	return "tickets/" + ticketID + "/comments"
}

// ticketIDFromKey extracts the owning ticket from an attachment key.
func ticketIDFromKey(key string) (string, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "tickets" || parts[1] == "" {
		return "", false
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", false
		}
	}
	return parts[1], true
}
