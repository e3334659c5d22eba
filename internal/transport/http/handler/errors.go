package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/ErlanBelekov/departments-api/internal/apperror"
	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	errInvalidCredentials = "Invalid credentials"
	errMissingIdentity    = "Authenticated identity missing from request context"
	errInvalidBody        = "Invalid request body"
	errInvalidID          = "Validation failed (numeric string is expected)"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// toHTTPError maps domain errors to classified HTTP errors. Anything it does
// not recognize is returned as-is for the normalizer to classify.
func toHTTPError(err error) error {
	var notFound *domain.NotFoundError
	var infra *domain.InfraError

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperror.Unauthenticated(errInvalidCredentials, err)
	case errors.As(err, &notFound):
		return apperror.NotFound(notFound.Error(), err)
	case errors.As(err, &infra):
		return apperror.Internal(infra.Message, err)
	}
	return err
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(toHTTPError(err))
}

// bindJSON binds and validates the body. On failure it records a validation
// error carrying the first field message and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		_ = c.Error(apperror.Validation(errInvalidBody, map[string]any{"reason": err.Error()}))
		return false
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = fieldMessage(fe)
	}
	_ = c.Error(apperror.Validation(messages[0], map[string]any{"errors": messages}))
	return false
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s failed the %s rule", field, fe.Tag())
}

// fieldPath drops the struct name from the namespace:
// "createDepartmentRequest.sub_departments[0].name" -> "sub_departments[0].name".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		_ = c.Error(apperror.Validation(errInvalidID, map[string]any{"param": name, "value": c.Param(name)}))
		return 0, false
	}
	return id, true
}
