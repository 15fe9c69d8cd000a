package serverutils

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestValidateRequest(t *testing.T) {
	type payload struct {
		Email   string `validate:"required,email"`
		Message string `validate:"required,max=10"`
	}

	err := ValidateRequest(payload{Email: "a@b.example", Message: "hi"})
	assert.NoError(t, err)

	err = ValidateRequest(payload{Email: "not-an-email", Message: "hi"})
	assert.Error(t, err)

	var fiberErr *fiber.Error
	assert.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusBadRequest, fiberErr.Code)
}

func TestResponseEnvelopes(t *testing.T) {
	ok := SuccessResponse("done", map[string]string{"id": "1"})
	assert.True(t, ok.Success)
	assert.Equal(t, fiber.StatusOK, ok.Code)
	assert.Equal(t, "done", ok.Message)

	bad := ErrorResponse(fiber.StatusNotFound, "missing")
	assert.False(t, bad.Success)
	assert.Equal(t, fiber.StatusNotFound, bad.Code)
	assert.Nil(t, bad.Data)
}
