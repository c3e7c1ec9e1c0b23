package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"feedback/feedback-service/internal/app/feedback/entity"
	"feedback/feedback-service/internal/app/feedback/service"
	"feedback/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	errInvalidBody      = "Invalid request body"
	errValidationFailed = "Validation failed"
	errParamValidation  = "Parameter validation failed"
	errInternal         = "Internal server error"
	invalidUUIDMessage  = "must be a valid UUID"
)

// respondError переводит ошибку сервиса в HTTP-ответ
func respondError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Not Found", Message: err.Error()})
	case service.KindInvalidReference:
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Bad Request", Message: err.Error()})
	case service.KindConflict:
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Conflict", Message: err.Error()})
	default:
		logger.Ctx(c.Request.Context()).Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: errInternal})
	}
}

// parseID читает :id; при невалидном UUID сразу отвечает 400
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   errParamValidation,
			Details: []entity.FieldDetail{{Field: "id", Message: invalidUUIDMessage}},
		})
		return uuid.Nil, false
	}
	return id, true
}

// newValidator имена полей в ошибках берутся из json-тегов
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate разбирает тело запроса и проверяет его; ответ с ошибкой уже отправлен, если false
func bindAndValidate(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: errInvalidBody})
		return false
	}

	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   errValidationFailed,
			Details: formatValidationErrors(err),
		})
		return false
	}

	return true
}

func formatValidationErrors(err error) []entity.FieldDetail {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []entity.FieldDetail{{Message: err.Error()}}
	}

	details := make([]entity.FieldDetail, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, entity.FieldDetail{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return invalidUUIDMessage
	case "email":
		return "must be a valid email"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return "is invalid"
	}
}
