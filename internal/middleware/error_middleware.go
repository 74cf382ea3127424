package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/pkg/apperrors"
	"github.com/hubtc/portal/internal/pkg/logger"
)

type errorMapping struct {
	status  int
	code    dto.ErrorCode
	message string
	errs    []error
}

// Order matters: the first matching row wins.
var errorMappings = []errorMapping{
	{http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found", []error{
		apperrors.ErrResourceNotFound,
		apperrors.ErrConversationNotFound,
		apperrors.ErrMessageNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrNotificationNotFound,
	}},
	{http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied", []error{
		apperrors.ErrNotParticipant,
		apperrors.ErrNotMessageSender,
		apperrors.ErrPermissionDenied,
	}},
	{http.StatusUnprocessableEntity, dto.ErrorCodeResourceInvalid, "Operation not allowed in the current state", []error{
		apperrors.ErrEditWindowExpired,
		apperrors.ErrMessageDeleted,
		apperrors.ErrUnprocessable,
	}},
	{http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed", []error{
		apperrors.ErrEmptyMessage,
		apperrors.ErrInvalidReplyTarget,
		apperrors.ErrInvalidEmoji,
		apperrors.ErrGroupNameRequired,
		apperrors.ErrInvalidParticipants,
		apperrors.ErrValidationFailed,
	}},
	{http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request", []error{
		apperrors.ErrBadRequest,
	}},
	{http.StatusConflict, dto.ErrorCodeConflict, "Conflict", []error{
		apperrors.ErrResourceAlreadyExists,
		apperrors.ErrConflict,
	}},
	{http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired", []error{
		apperrors.ErrTokenExpired,
	}},
	{http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token", []error{
		apperrors.ErrTokenInvalid,
	}},
}

// StatusForError returns the HTTP status and error detail an error maps to.
// Domain sentinels carry their own message; a CustomError message takes precedence.
func StatusForError(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.errs[0], m.errs[1:]...) {
			continue
		}
		message := m.message
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			message = custom.Message
		} else if sentinel := matched(err, m.errs); sentinel != nil {
			message = upperFirst(sentinel.Error())
		}
		detail := dto.NewErrorDetail(m.code, message)
		if custom != nil && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		return m.status, detail
	}
	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
}

func matched(err error, errs []error) error {
	for _, e := range errs {
		if errors.Is(err, e) {
			return e
		}
	}
	return nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := StatusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Str("method", c.Request.Method).
			Msg("Unhandled API error")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}
