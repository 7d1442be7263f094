package response

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the uniform error envelope for every caller-facing
// failure: {success: false, message, error?}.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
}

func Error(c *fiber.Ctx, status int, message, detail string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Message: message,
		Err:     detail,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "")
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message, "")
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message, "")
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message, "")
}

func RateLimited(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, "Rate limit exceeded", "")
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message, "")
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Accepted(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusAccepted).JSON(data)
}
