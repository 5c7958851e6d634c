package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string   `json:"name" validate:"required,min=2"`
	Email   string   `json:"email" validate:"required,email"`
	Theme   string   `json:"theme" validate:"required,oneof=modern classic"`
	Methods []string `json:"methods" validate:"min=1"`
}

func TestStructReportsAllErrorsAtOnce(t *testing.T) {
	v := New()

	errs := Struct(v, sample{Name: "A", Email: "nope", Theme: "neon"})

	require.Len(t, errs, 4)
	assert.Equal(t, "must be at least 2 characters", errs["name"])
	assert.Equal(t, "must be a valid email address", errs["email"])
	assert.Equal(t, "must be one of: modern, classic", errs["theme"])
	assert.Equal(t, "select at least 1", errs["methods"])
}

func TestStructAcceptsValidInput(t *testing.T) {
	v := New()

	errs := Struct(v, sample{
		Name:    "Bakery",
		Email:   "owner@example.com",
		Theme:   "modern",
		Methods: []string{"card"},
	})

	assert.Nil(t, errs)
}

func TestFieldErrorsError(t *testing.T) {
	fe := FieldErrors{"name": "is required"}

	assert.Contains(t, fe.Error(), "name: is required")
}
