package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lireddit/apiserver/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages maps a field and failed rule to a client-facing message.
var fieldMessages = map[string]string{
	"username.min":   "username must be longer than 2 characters",
	"password.min":   "password must be at least 8 characters",
	"title.required": "title is required",
	"title.max":      "title must be at most 255 characters",
}

// firstFieldError validates input and reports the first violation in
// struct field order, or nil when input is valid.
func firstFieldError(input any) (*types.FieldError, error) {
	err := validate.Struct(input)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil, err
	}

	fe := verrs[0]
	msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = fe.Error()
	}
	return &types.FieldError{Field: fe.Field(), Message: msg}, nil
}
