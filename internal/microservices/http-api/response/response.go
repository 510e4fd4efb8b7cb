// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bukinn/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error maps err to a status and aborts the chain. The underlying error
// chain is only included while gin runs in debug mode.
func Error(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	body := Envelope{Success: false, Message: apperror.Message(err)}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body.Errors = []FieldError{{Field: appErr.Field, Message: appErr.Message}}
	}
	if gin.IsDebugging() {
		body.Error = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// BindError answers a failed ShouldBind* call with 400.
func BindError(c *gin.Context, err error) {
	body := Envelope{Success: false, Message: "Validation failed"}

	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			body.Errors = append(body.Errors, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	case errors.As(err, &typeErr):
		body.Errors = []FieldError{{Field: typeErr.Field, Message: fmt.Sprintf("%s has the wrong type", typeErr.Field)}}
	case errors.As(err, &syntaxErr):
		body.Message = "Invalid request body"
	default:
		body.Message = "Invalid request"
	}
	if gin.IsDebugging() {
		body.Error = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid|len=0":
		return field + " must be a valid ID"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "phone":
		return "Invalid phone number format. Use E.164 format (e.g. +919876543210)"
	case "otp":
		return "OTP must be exactly 6 digits"
	default:
		return field + " is invalid"
	}
}
