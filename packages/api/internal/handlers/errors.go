package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/api/internal/leases"
	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
)

// toAPIError maps the lifecycle error taxonomy onto HTTP.
func toAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var (
		costDecrease *leases.CostDecreaseError
		code         int
	)

	switch {
	case lifecycle.IsValidation(err), errors.Is(err, store.ErrInvalidPageIdentifier), errors.As(err, &costDecrease):
		code = http.StatusBadRequest
	case errors.Is(err, identity.ErrForbidden), errors.Is(err, leases.ErrUnfreezeDisabled):
		code = http.StatusForbidden
	case store.IsNotFound(err):
		code = http.StatusNotFound
	case store.IsAlreadyExists(err), store.IsConflict(err), lifecycle.IsInvalidTransition(err), errors.Is(err, leases.ErrLeaseLimitReached):
		code = http.StatusConflict
	case errors.Is(err, accounts.ErrNoCapacity), errors.Is(err, lifecycle.ErrMaintenanceMode):
		code = http.StatusServiceUnavailable
	default:
		return &api.APIError{Err: err, ClientMsg: "internal error", Code: http.StatusInternalServerError}
	}

	return &api.APIError{Err: err, ClientMsg: err.Error(), Code: code}
}

func (a *APIStore) sendError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Code >= http.StatusInternalServerError && apiErr.Code != http.StatusServiceUnavailable {
		telemetry.ReportCriticalError(c.Request.Context(), "request failed", err)
	}

	a.sendAPIStoreError(c, apiErr.Code, apiErr.ClientMsg)
}

func (a *APIStore) forbidden(c *gin.Context, action string) {
	a.sendAPIStoreError(c, http.StatusForbidden, "not allowed to "+action)
}
