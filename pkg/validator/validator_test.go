package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type rsvpPayload struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Attending string `json:"attending" validate:"required,attending"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(rsvpPayload{
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Attending: "yes",
	}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(rsvpPayload{
		Name:      "",
		Email:     "not-an-email",
		Attending: "yes",
	})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)

	fields := []string{failures[0].Field, failures[1].Field}
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "email")
}

func TestAttendingRule(t *testing.T) {
	for _, value := range []string{"yes", "No", " MAYBE "} {
		require.NoError(t, ValidateStruct(rsvpPayload{
			Name:      "Ada",
			Email:     "ada@example.com",
			Attending: value,
		}), "value %q", value)
	}

	err := ValidateStruct(rsvpPayload{
		Name:      "Ada",
		Email:     "ada@example.com",
		Attending: "perhaps",
	})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 1)
	require.Equal(t, "attending", failures[0].Field)
	require.Equal(t, "attending", failures[0].Tag)
}

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation("slugish", func(fl validator.FieldLevel) bool {
		return fl.Field().String() != ""
	}))

	type payload struct {
		Slug string `validate:"slugish"`
	}
	require.NoError(t, ValidateStruct(payload{Slug: "summer-party"}))
	require.Error(t, ValidateStruct(payload{Slug: ""}))
}
