// Package common holds the response envelopes and request helpers shared by
// the HTTP handlers.
package common

import (
	"errors"
	"strconv"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs, extended
// with the ledger error code.
type ProblemDetails struct {
	Type         string `json:"type,omitempty"`         // A URI reference that identifies the problem type
	Title        string `json:"title"`                  // Short, human-readable summary
	Status       int    `json:"status"`                 // HTTP status code
	Detail       string `json:"detail,omitempty"`       // Human-readable explanation
	Instance     string `json:"instance,omitempty"`     // URI reference that identifies the specific occurrence
	Errors       any    `json:"errors,omitempty"`       // Optional: additional error details
	ErrorCode    string `json:"errorCode,omitempty"`    // Ledger error code
	ErrorMessage string `json:"errorMessage,omitempty"` // Message attached to the error code
}

var validate = validator.New()

// statusByCode maps ledger error codes to HTTP status codes.
var statusByCode = map[domain.ErrorCode]int{
	domain.UserNotFound:                fiber.StatusNotFound,
	domain.AccountNotFound:             fiber.StatusNotFound,
	domain.TransactionNotFound:         fiber.StatusNotFound,
	domain.UserAccountUnmatched:        fiber.StatusForbidden,
	domain.InvalidRequest:              fiber.StatusBadRequest,
	domain.AmountExceedBalance:         fiber.StatusUnprocessableEntity,
	domain.TransactionAccountUnmatched: fiber.StatusUnprocessableEntity,
	domain.CancelMustFully:             fiber.StatusUnprocessableEntity,
	domain.TooOldOrderToCancel:         fiber.StatusUnprocessableEntity,
	domain.AccountAlreadyUnregistered:  fiber.StatusConflict,
	domain.BalanceNotEmpty:             fiber.StatusConflict,
	domain.MaxAccountPerUser:           fiber.StatusConflict,
	domain.AccountTransactionLock:      fiber.StatusLocked,
	domain.InternalServerError:         fiber.StatusInternalServerError,
}

// ErrorToStatusCode maps errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if status, ok := statusByCode[domain.CodeOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ProblemDetailsJSON writes an RFC 9457 response for err. Optional args
// override the defaults: a string sets the detail, an int sets the status.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := ErrorToStatusCode(err)
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		pd.ErrorCode = string(derr.Code)
		pd.ErrorMessage = derr.Message
		pd.Detail = derr.Code.Message()
	} else if err != nil {
		pd.Detail = err.Error()
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			pd.Detail = v
		case int:
			status = v
		case []string:
			pd.Errors = v
		}
	}
	pd.Status = status

	if derr != nil && derr.Code.Retryable() {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(1))
	}
	return c.Status(status).JSON(pd, "application/problem+json")
}

// SuccessResponseJSON writes the success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body",
			domain.Errorf(domain.InvalidRequest, "malformed request body"), err.Error())
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed",
			domain.Errorf(domain.InvalidRequest, "request validation failed"), validationMessages(err))
	}
	return &input, nil
}

func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out = append(out, msg)
	}
	return out
}
