package handlers

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/sandbox-pool/infra/packages/api/internal/accounts"
	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/globalconfig"
	"github.com/sandbox-pool/infra/packages/api/internal/leases"
	"github.com/sandbox-pool/infra/packages/api/internal/teams"
	"github.com/sandbox-pool/infra/packages/api/internal/templates"
)

var tracer = otel.Tracer("github.com/sandbox-pool/infra/packages/api/internal/handlers")

type APIStore struct {
	Healthy atomic.Bool

	leases    *leases.Registry
	accounts  *accounts.Registry
	templates *templates.Registry
	teams     *teams.Registry
	config    globalconfig.Provider
}

func NewAPIStore(
	leaseRegistry *leases.Registry,
	accountRegistry *accounts.Registry,
	templateRegistry *templates.Registry,
	teamRegistry *teams.Registry,
	config globalconfig.Provider,
) *APIStore {
	return &APIStore{
		leases:    leaseRegistry,
		accounts:  accountRegistry,
		templates: templateRegistry,
		teams:     teamRegistry,
		config:    config,
	}
}

// This function wraps sending of an error in the Error format, and
// handling the failure to marshal that.
func (a *APIStore) sendAPIStoreError(c *gin.Context, code int, message string) {
	apiErr := api.Error{
		Code:    int32(code),
		Message: message,
	}

	_ = c.Error(errors.New(message))
	c.JSON(code, apiErr)
}

func (a *APIStore) GetHealth(c *gin.Context) {
	if a.Healthy.Load() {
		c.String(http.StatusOK, "Health check successful")

		return
	}

	c.String(http.StatusServiceUnavailable, "Service is unavailable")
}

func (a *APIStore) GetConfigurations(c *gin.Context) {
	cfg, err := a.config.Get(c.Request.Context())
	if err != nil {
		a.sendError(c, err)

		return
	}

	c.JSON(http.StatusOK, cfg)
}

// pageSize converts the validated pageSize query parameter, zero means the default.
func pageSize(size *api.PageSize) int {
	if size == nil {
		return 0
	}

	return int(*size)
}

func (a *APIStore) bindJSON(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		a.sendAPIStoreError(c, http.StatusBadRequest, "invalid request body: "+err.Error())

		return false
	}

	return true
}
