package httpapi

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	"github.com/dmitrijs2005/expensekeeper/internal/timex"
	"github.com/gofiber/fiber/v2"
)

func (s *HTTPServer) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "OK"})
}

func (s *HTTPServer) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	user, err := s.users.Register(c.UserContext(), *req.Email, *req.Password, req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

func (s *HTTPServer) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	email, password, err := req.credentials()
	if err != nil {
		return err
	}

	res, err := s.users.Login(c.UserContext(), email, password)
	if err != nil {
		return err
	}

	return c.JSON(newLoginResponse(res))
}

func (s *HTTPServer) ListExpenses(c *fiber.Ctx) error {
	f := services.ListFilter{Period: c.Query("period")}

	var err error
	if f.Start, err = queryDate(c, "start_date"); err != nil {
		return err
	}
	if f.End, err = queryDate(c, "end_date"); err != nil {
		return err
	}

	items, err := s.expenses.List(c.UserContext(), currentUser(c), f)
	if err != nil {
		return err
	}

	out := make([]expenseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, newExpenseResponse(e))
	}
	return c.JSON(out)
}

func (s *HTTPServer) CreateExpense(c *fiber.Ctx) error {
	in, err := parseExpense(c)
	if err != nil {
		return err
	}

	e, err := s.expenses.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newExpenseResponse(e))
}

func (s *HTTPServer) UpdateExpense(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	in, err := parseExpense(c)
	if err != nil {
		return err
	}

	e, err := s.expenses.Update(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return err
	}

	return c.JSON(newExpenseResponse(e))
}

func (s *HTTPServer) DeleteExpense(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := s.expenses.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseExpense(c *fiber.Ctx) (services.ExpenseInput, error) {
	var req expenseRequest
	if err := c.BodyParser(&req); err != nil {
		return services.ExpenseInput{}, badRequest("invalid request body")
	}
	return req.toInput()
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, badRequest("id must be an integer")
	}
	return id, nil
}

func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := timex.ParseDate(raw)
	if err != nil {
		return nil, badRequest(key + " must be YYYY-MM-DD")
	}
	return &d, nil
}
