package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const userLocalsKey = "user"

// requireUser resolves the bearer token to a user and stores it in the
// request locals. Requests without a usable token stop here with 401.
func (s *HTTPServer) requireUser(c *fiber.Ctx) error {
	token, ok := bearerToken(c.Get(common.AuthorizationHeaderName))
	if !ok {
		return common.ErrorUnauthorized
	}

	user, err := s.identity.Resolve(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(userLocalsKey, user)
	return c.Next()
}

// bearerToken extracts the credentials from "Bearer <token>". The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userLocalsKey).(*models.User)
	return u
}

// requestLogger writes one line per request. Errors are rendered here so the
// logged status is the one the client sees.
func (s *HTTPServer) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.Info(c.UserContext(), "request",
		"request_id", c.Locals("requestid"),
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start).String(),
	)
	return nil
}
