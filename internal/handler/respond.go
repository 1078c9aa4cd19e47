package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/flutterwave"
	"github.com/Abrahambaraka/Feza-pay/internal/middleware"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Upstream provider messages are logged in full before this point; clients
// only ever see the normalized message.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrOperatorMismatch):
		middleware.RespondError(c, http.StatusBadRequest, err.Error(), "INVALID_INPUT")

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondError(c, http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")

	case errors.Is(err, service.ErrForbidden):
		middleware.RespondError(c, http.StatusForbidden, "You can only access your own resources", "FORBIDDEN")

	case errors.Is(err, service.ErrKYCRequired):
		middleware.RespondError(c, http.StatusForbidden, "KYC approval is required before issuing a card", "KYC_REQUIRED")

	case errors.Is(err, service.ErrPaymentProofInvalid):
		middleware.RespondError(c, http.StatusUnprocessableEntity, err.Error(), "PAYMENT_PROOF_INVALID")

	case errors.Is(err, repository.ErrDuplicateEmail):
		middleware.RespondError(c, http.StatusConflict, err.Error(), "CONFLICT")

	case errors.Is(err, repository.ErrInsufficientBalance):
		middleware.RespondError(c, http.StatusUnprocessableEntity, err.Error(), "INSUFFICIENT_BALANCE")

	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCardNotFound),
		errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrKYCNotFound):
		middleware.RespondError(c, http.StatusNotFound, err.Error(), "NOT_FOUND")

	case errors.Is(err, flutterwave.ErrNotConfigured):
		middleware.RespondError(c, http.StatusServiceUnavailable, "Payment provider is not configured", "NOT_CONFIGURED")

	default:
		var gwErr *flutterwave.GatewayError
		var issErr *flutterwave.IssuerError
		if errors.As(err, &gwErr) {
			middleware.RespondError(c, http.StatusBadGateway, gwErr.Message, "GATEWAY_ERROR")
			return
		}
		if errors.As(err, &issErr) {
			middleware.RespondError(c, http.StatusBadGateway, issErr.Message, "ISSUER_ERROR")
			return
		}
		logger.Error("unexpected error", zap.Error(err))
		middleware.RespondError(c, http.StatusInternalServerError, "Internal server error", "INTERNAL")
	}
}
