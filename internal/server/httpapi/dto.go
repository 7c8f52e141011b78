package httpapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	"github.com/dmitrijs2005/expensekeeper/internal/timex"
	"github.com/shopspring/decimal"
)

type signupRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

// loginRequest accepts JSON {email, password} as well as the OAuth2
// password form, where the email travels as "username".
type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type expenseResponse struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description *string     `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (r *signupRequest) validate() error {
	var missing []string
	if r.Email == nil || strings.TrimSpace(*r.Email) == "" {
		missing = append(missing, "email")
	}
	if r.Password == nil {
		missing = append(missing, "password")
	}
	return missingFields(missing)
}

func (r *loginRequest) credentials() (string, string, error) {
	email := r.Email
	if email == "" {
		email = r.Username
	}

	var missing []string
	if email == "" {
		missing = append(missing, "username")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if err := missingFields(missing); err != nil {
		return "", "", err
	}
	return email, r.Password, nil
}

func (r *expenseRequest) toInput() (services.ExpenseInput, error) {
	var missing []string
	if r.Amount == nil {
		missing = append(missing, "amount")
	}
	if r.Category == nil {
		missing = append(missing, "category")
	}
	if r.Date == nil {
		missing = append(missing, "date")
	}
	if err := missingFields(missing); err != nil {
		return services.ExpenseInput{}, err
	}

	date, err := timex.ParseDate(*r.Date)
	if err != nil {
		return services.ExpenseInput{}, badRequest("date must be YYYY-MM-DD")
	}

	return services.ExpenseInput{
		Amount:      *r.Amount,
		Category:    *r.Category,
		Date:        date,
		Description: r.Description,
	}, nil
}

func missingFields(names []string) error {
	if len(names) == 0 {
		return nil
	}
	return badRequest("missing required fields: " + strings.Join(names, ", "))
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func newLoginResponse(r *services.LoginResult) loginResponse {
	return loginResponse{AccessToken: r.AccessToken, TokenType: r.TokenType, ExpiresAt: r.ExpiresAt}
}

func newExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      json.Number(e.Amount.StringFixed(2)),
		Category:    string(e.Category),
		Date:        e.Date.Format(common.DateLayout),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}
