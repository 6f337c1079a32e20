package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-boarding/internal/common/domain"
)

// ErrorBody is the error part of the response envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Error: &ErrorBody{Code: string(domain.CodeValidation), Message: message},
	})
}

// Unauthorized writes a 401 error.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
		Error: &ErrorBody{Code: string(domain.CodeUnauthorized), Message: message},
	})
}

// Forbidden writes a 403 error.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{
		Error: &ErrorBody{Code: string(domain.CodeForbidden), Message: message},
	})
}

// Error maps err to an HTTP status. Anything that is not a DomainError is a 500 and its
// message is not leaked.
func Error(c *gin.Context, err error) {
	de, ok := asDomainError(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
			Error: &ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"},
		})
		return
	}

	c.AbortWithStatusJSON(StatusFor(de.Code), Envelope{
		Error: &ErrorBody{Code: string(de.Code), Message: de.Message, Details: de.Details},
	})
}

// StatusFor returns the HTTP status used for a domain error code.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func asDomainError(err error) (*domain.DomainError, bool) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// PageMeta describes one page of a paginated list.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PaginatedData is the data part of a paginated response.
type PaginatedData struct {
	Items any      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// Paginated writes a 200 response with one page of items.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	Success(c, PaginatedData{
		Items: items,
		Meta: PageMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}
