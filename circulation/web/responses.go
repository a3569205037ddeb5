package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/librarydesk/circulation/shared/core"
	"github.com/AntonStoeckl/librarydesk/librarystore"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Error codes of the JSON error envelope.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnavailable       = "DATABASE_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
	internalErrorMessage  = "the operation failed, please try again later"
	unavailableErrMessage = "the database is currently unavailable"
)

// ErrorResponse is the envelope of every failed API call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// SuccessResponse is the envelope of every successful API call.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// respondJSON serializes the body with json-iterator instead of gin's encoder.
func respondJSON(c *gin.Context, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		c.Data(http.StatusInternalServerError, contentTypeJSON, []byte(`{"error":"INTERNAL_ERROR","code":500}`))
		return
	}

	c.Data(status, contentTypeJSON, payload)
}

func respondSuccess(c *gin.Context, status int, data any, message string) {
	respondJSON(c, status, SuccessResponse{Success: true, Data: data, Message: message})
}

func respondError(c *gin.Context, err error) {
	status, code := classifyError(err)

	respondJSON(c, status, ErrorResponse{
		Error:     code,
		Message:   userMessage(status, err),
		Code:      status,
		RequestID: RequestIDFrom(c),
	})
}

func respondBadRequest(c *gin.Context, err error) {
	respondJSON(c, http.StatusBadRequest, ErrorResponse{
		Error:     CodeBadRequest,
		Message:   err.Error(),
		Code:      http.StatusBadRequest,
		RequestID: RequestIDFrom(c),
	})
}

// classifyError maps a handler error to its HTTP status and error code.
func classifyError(err error) (int, string) {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case core.IsConflict(err), errors.Is(err, librarystore.ErrConstraintViolation):
		return http.StatusConflict, CodeConflict
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity, CodeInvalidInput
	case errors.Is(err, librarystore.ErrConnectionFailure):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// userMessage hides technical details of server-side failures.
func userMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return internalErrorMessage
	case http.StatusServiceUnavailable:
		return unavailableErrMessage
	case http.StatusUnprocessableEntity:
		return strings.ReplaceAll(err.Error(), "\n", "; ")
	default:
		message, _, _ := strings.Cut(err.Error(), "\n")
		return message
	}
}
