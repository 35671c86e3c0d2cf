package presenters

import (
	"errors"
	"fmt"
	"strings"

	"recipe-share/domain"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LocalsError holds the error behind a 5xx response so the reporting
// middleware can log it after the handler returns.
const LocalsError = "response_error"

type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data any, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	res := Response{
		Status:  false,
		Message: message,
	}

	switch {
	case statusCode >= fiber.StatusInternalServerError:
		c.Locals(LocalsError, err)
		res.Error = domain.MessageInternalServerError
	case err != nil:
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			res.Error = formatValidationErrors(verrs)
		} else {
			res.Error = err.Error()
		}
	}
	return c.Status(statusCode).JSON(res)
}

// Failure answers with the status StatusFromError assigns to err.
func Failure(c *fiber.Ctx, message string, err error) error {
	return ErrorResponse(c, StatusFromError(err), message, err)
}

func StatusFromError(err error) int {
	var verrs validator.ValidationErrors
	var ferr *fiber.Error

	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &verrs):
		return fiber.StatusBadRequest
	case errors.As(err, &ferr):
		return ferr.Code
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrIngredientNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrEmailAlreadyExists),
		errors.Is(err, domain.ErrUsernameAlreadyExists),
		errors.Is(err, domain.ErrRecipeNameTaken),
		errors.Is(err, domain.ErrIngredientAlreadyExists),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUnauthorizedRecipeAccess),
		errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrImageTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidImageFormat):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrParseUUID),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrAlreadyVerified),
		errors.Is(err, domain.ErrRecipeNameInvalid),
		errors.Is(err, domain.ErrDuplicateIngredient),
		errors.Is(err, domain.ErrUnknownIngredient),
		errors.Is(err, domain.ErrSearchQueryRequired),
		errors.Is(err, domain.ErrOAuthStateMismatch),
		errors.Is(err, domain.ErrOAuthEmailUnverified):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrOAuthExchange):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrSearchUnavailable),
		errors.Is(err, domain.ErrSessionStore):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
