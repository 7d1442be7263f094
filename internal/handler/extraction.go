package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/coursedeck/api/internal/middleware"
	"github.com/coursedeck/api/internal/service"
	"github.com/coursedeck/api/pkg/response"
)

type ExtractionHandler struct {
	service *service.ExtractionService
}

func NewExtractionHandler(svc *service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{service: svc}
}

// Upload handles POST /upload. The document is read fully into memory and
// handed to a detached extraction run; the response returns immediately
// with the process id to poll.
func (h *ExtractionHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	result := h.service.Submit(middleware.GetUserID(c), data, file.Filename)
	return response.Accepted(c, result)
}

// Status handles GET /status/:processId.
func (h *ExtractionHandler) Status(c *fiber.Ctx) error {
	processID := c.Params("processId")
	if processID == "" {
		return response.BadRequest(c, "Process ID is required")
	}

	result, err := h.service.GetStatus(processID, middleware.GetUserID(c))
	if err != nil {
		return h.mapError(c, err)
	}
	return response.OK(c, result)
}

// UserStatus handles GET /user-status.
func (h *ExtractionHandler) UserStatus(c *fiber.Ctx) error {
	return response.OK(c, h.service.ListForOwner(middleware.GetUserID(c)))
}

// Result handles GET /result/:processId. A job that has not completed gets
// a 400 carrying its current status and progress.
func (h *ExtractionHandler) Result(c *fiber.Ctx) error {
	processID := c.Params("processId")
	if processID == "" {
		return response.BadRequest(c, "Process ID is required")
	}

	result, err := h.service.GetResult(processID, middleware.GetUserID(c))
	if err != nil {
		var notReady *service.NotReadyError
		if errors.As(err, &notReady) {
			msg := fmt.Sprintf("Job not ready: status %s, progress %d", notReady.Status, notReady.Progress)
			return response.Error(c, fiber.StatusBadRequest, msg, notReady.Reason)
		}
		return h.mapError(c, err)
	}
	return response.OK(c, result)
}

// Cancel handles POST /cancel/:processId.
func (h *ExtractionHandler) Cancel(c *fiber.Ctx) error {
	processID := c.Params("processId")
	if processID == "" {
		return response.BadRequest(c, "Process ID is required")
	}

	result, err := h.service.Cancel(processID, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			return response.BadRequest(c, "Job already finished")
		}
		return h.mapError(c, err)
	}
	return response.OK(c, result)
}

// Stats handles GET /stats (admin only, enforced by middleware).
func (h *ExtractionHandler) Stats(c *fiber.Ctx) error {
	return response.OK(c, h.service.Stats())
}

func (h *ExtractionHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return response.NotFound(c, "Job not found")
	case errors.Is(err, service.ErrForbidden):
		return response.Forbidden(c, "Job belongs to another user")
	default:
		return response.ServiceError(c, err.Error())
	}
}
