package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error string `json:"error"`
}

// requestError is a malformed or incomplete request body, query or path.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// statusFor maps an error to the HTTP status and the message shown to the
// client. Unknown errors never leak their text.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	var re *requestError

	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.As(err, &re):
		return fiber.StatusUnprocessableEntity, re.msg
	case errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrInvalidCategory),
		errors.Is(err, common.ErrInvalidRange),
		errors.Is(err, common.ErrInvalidPeriod),
		errors.Is(err, common.ErrorValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "Expense not found"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)

	if code == fiber.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, common.BearerScheme)
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed", "error", err, "path", c.Path())
	}

	return c.Status(code).JSON(errorResponse{Error: msg})
}
