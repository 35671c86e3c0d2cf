package presenters

import (
	"errors"
	"fmt"
	"testing"

	"recipe-share/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusOK},
		{domain.ErrRecipeNotFound, fiber.StatusNotFound},
		{gorm.ErrRecordNotFound, fiber.StatusNotFound},
		{domain.ErrEmailAlreadyExists, fiber.StatusConflict},
		{gorm.ErrDuplicatedKey, fiber.StatusConflict},
		{domain.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{domain.ErrUnauthorizedRecipeAccess, fiber.StatusForbidden},
		{domain.ErrImageTooLarge, fiber.StatusRequestEntityTooLarge},
		{domain.ErrInvalidImageFormat, fiber.StatusUnsupportedMediaType},
		{fmt.Errorf("%w: 123", domain.ErrUnknownIngredient), fiber.StatusBadRequest},
		{domain.ErrOAuthStateMismatch, fiber.StatusBadRequest},
		{domain.ErrOAuthExchange, fiber.StatusBadGateway},
		{fmt.Errorf("%w: timeout", domain.ErrSearchUnavailable), fiber.StatusServiceUnavailable},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromError(tt.err))
		})
	}
}
