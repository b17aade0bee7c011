package controller

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"

	"quote-management-api/internal/service"
)

const (
	defaultLimit  = 20
	defaultOffset = 0
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, authorization 403, missing record 404, illegal lifecycle
// state 409, everything else 500.
func respondServiceError(c echo.Context, err error) error {
	var validationErr *service.ValidationError
	var authErr *service.AuthorizationError
	var notFoundErr *service.NotFoundError
	var stateErr *service.InvalidStateError

	switch {
	case errors.As(err, &validationErr):
		if e := c.JSON(http.StatusBadRequest, errorResponse{validationErr.Error()}); e != nil {
			return e
		}
	case errors.As(err, &authErr):
		if e := c.JSON(http.StatusForbidden, errorResponse{authErr.Error()}); e != nil {
			return e
		}
	case errors.As(err, &notFoundErr):
		if e := c.JSON(http.StatusNotFound, errorResponse{notFoundErr.Error()}); e != nil {
			return e
		}
	case errors.As(err, &stateErr):
		if e := c.JSON(http.StatusConflict, errorResponse{stateErr.Error()}); e != nil {
			return e
		}
	default:
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Error"}); e != nil {
			return e
		}
	}

	return err
}

func getAllErrorMessages(err error) string {
	var builder strings.Builder
	for _, fe := range err.(validator.ValidationErrors) {
		message := fmt.Sprintf("'%s': %s\n", fe.Field(), getMessage(fe))
		builder.WriteString(message)
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	s, i := "", int64(0)
	if fe.Type() == reflect.TypeOf(s) {
		return getMessageForString(fe)
	}

	if fe.Type() == reflect.TypeOf(i) {
		return getMessageForInt(fe)
	}

	if fe.Type() == reflect.TypeOf(0) {
		return getMessageForInt(fe)
	}

	return "Unknown error (2)"
}

func getMessageForInt(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	}

	return "incorrect value passed"
}

func getMessageForString(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "length should be less or equal than " + fe.Param()
	case "gte", "min":
		return "length should be greater or equal than " + fe.Param()
	case "oneof":
		return "should have value in: " + fe.Param()
	}

	return "incorrect value passed"
}
