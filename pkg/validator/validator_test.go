package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Title string `form:"title" label:"Title" validate:"required,max=5"`
	Body  string `json:"body" validate:"required"`
	Slug  string `validate:"min=3"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(testPayload{Title: "hi", Body: "text", Slug: "abc"}))
}

func TestValidateStructReportsInFieldOrder(t *testing.T) {
	err := ValidateStruct(&testPayload{Title: strings.Repeat("x", 6), Slug: "a"})
	require.Error(t, err)

	vErrs, ok := err.(ValidationErrors)
	require.True(t, ok, "expected ValidationErrors, got %T", err)
	require.Len(t, vErrs, 3)

	require.Equal(t, "title", vErrs[0].Field)
	require.Equal(t, "Title", vErrs[0].Label)
	require.Equal(t, "max", vErrs[0].Tag)
	require.Equal(t, "body", vErrs[1].Field)
	require.Equal(t, "Slug", vErrs[2].Field)

	require.Equal(t, []string{
		"Title must be 5 characters or fewer.",
		"body is required.",
		"Slug must be at least 3 characters.",
	}, vErrs.Messages())
}

func TestMaxCountsCharactersNotBytes(t *testing.T) {
	require.NoError(t, ValidateStruct(testPayload{Title: "ééééé", Body: "b", Slug: "abc"}))
}

func TestRegisterValidationAndMessage(t *testing.T) {
	require.NoError(t, RegisterValidation("guestbook", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "guestbook"
	}))
	RegisterMessage("guestbook", func(label, _ string) string {
		return label + " must say guestbook."
	})

	type custom struct {
		Value string `label:"Value" validate:"guestbook"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "guestbook"}))

	err := ValidateStruct(custom{Value: "other"})
	require.EqualError(t, err, "Value must say guestbook.")
}
