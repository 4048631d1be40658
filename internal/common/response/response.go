package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/homestead-rentals/service-booking/internal/common/domain"
	"go.uber.org/zap"
)

const unexpectedMessage = "an unexpected error occurred"

// Envelope is the JSON body of every response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *PageMeta   `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Status      int               `json:"status"`
	Message     string            `json:"message"`
	Timestamp   time.Time         `json:"timestamp"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a page of items with its metadata.
func Paginated[T any](c *gin.Context, result domain.PaginatedResult[T]) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    result.Items,
		Meta: &PageMeta{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message, nil)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context) {
	abort(c, http.StatusUnauthorized, "unauthorized", nil)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, message, nil)
}

// BindError writes a 400 response for a request body or query that failed binding.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		abort(c, http.StatusBadRequest, "validation failed", FieldErrors(verrs))
		return
	}
	abort(c, http.StatusBadRequest, "malformed request body", nil)
}

// Error maps err to a status code. Errors that are not domain errors are logged and hidden.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		if log, ok := c.Get(loggerKey); ok {
			log.(*zap.Logger).Error("unhandled error",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		abort(c, http.StatusInternalServerError, unexpectedMessage, nil)
		return
	}
	abort(c, StatusFor(de.Kind), de.Message, de.Fields)
}

// StatusFor returns the HTTP status of an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBadRequest, domain.KindInvalidState, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldErrors converts validator errors into a field -> message map.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	default:
		return "is invalid"
	}
}

// loggerKey is where middleware.LoggerMiddleware stores the request logger.
const loggerKey = "logger"

// SetLogger attaches a logger to the request for Error to use.
func SetLogger(c *gin.Context, log *zap.Logger) {
	c.Set(loggerKey, log)
}

func abort(c *gin.Context, status int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Status:      status,
			Message:     message,
			Timestamp:   time.Now().UTC(),
			FieldErrors: fields,
		},
	})
}
