package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo.  Field names
// in errors are the JSON names.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// FormatValidationErrors turns validator errors into field -> message.
func FormatValidationErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["body"] = err.Error()
		return out
	}
	for _, e := range verrs {
		f := e.Field()
		switch e.Tag() {
		case "required":
			out[f] = f + " is required"
		case "email":
			out[f] = "invalid email format"
		case "url", "http_url":
			out[f] = f + " must be a URL"
		case "min", "gte":
			out[f] = fmt.Sprintf("%s must be at least %s", f, e.Param())
		case "max", "lte":
			out[f] = fmt.Sprintf("%s must be at most %s", f, e.Param())
		case "oneof":
			out[f] = fmt.Sprintf("%s must be one of: %s", f, e.Param())
		default:
			out[f] = f + " is invalid"
		}
	}
	return out
}

// bindAndValidate decodes the body into dst and validates it.  It returns
// nil on success, otherwise the field errors to send back.
func bindAndValidate(c echo.Context, dst any) map[string]string {
	if err := c.Bind(dst); err != nil {
		return map[string]string{"body": "invalid request body"}
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(dst); err != nil {
		return FormatValidationErrors(err)
	}
	return nil
}

func invalid(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
}
