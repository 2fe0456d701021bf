package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-gonic/gin"
	middleware "github.com/oapi-codegen/gin-middleware"

	"github.com/sandbox-pool/infra/packages/api/internal/api"
	"github.com/sandbox-pool/infra/packages/api/internal/identity"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
)

const securityErrPrefix = "error in openapi3filter.SecurityRequirementsError: security requirements failed: "

var _ api.ServerInterface = (*APIStore)(nil)

// RegisterRoutes validates every request against swagger, authenticates the
// caller and mounts the API. authenticated runs once the caller is known,
// e.g. a rate limit.
func RegisterRoutes(router gin.IRouter, a *APIStore, swagger *openapi3.T, authenticated ...gin.HandlerFunc) {
	// Skip matching server names, we don't know how this will be run.
	swagger.Servers = nil

	router.Use(middleware.OapiRequestValidatorWithOptions(swagger,
		&middleware.Options{
			ErrorHandler: func(c *gin.Context, message string, fallbackStatusCode int) {
				// The validator only ever reports 400 or 404.
				statusCode := max(c.Writer.Status(), fallbackStatusCode)
				validationErrorHandler(c, message, statusCode)
			},
			MultiErrorHandler: multiErrorHandler,
			Options: openapi3filter.Options{
				AuthenticationFunc: identity.Authenticate,
				MultiError:         true,
			},
		}),
	)

	if len(authenticated) > 0 {
		router.Use(authenticated...)
	}

	api.RegisterHandlersWithOptions(router, a, api.GinServerOptions{
		ErrorHandler: func(c *gin.Context, err error, statusCode int) {
			a.sendAPIStoreError(c, statusCode, err.Error())
		},
	})
}

func validationErrorHandler(c *gin.Context, message string, statusCode int) {
	telemetry.ReportError(c.Request.Context(), "request failed validation", errors.New(message))
	_ = c.Error(fmt.Errorf("OpenAPI validation error: %s", message))

	if strings.HasPrefix(message, securityErrPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{
			Code:    http.StatusUnauthorized,
			Message: strings.TrimPrefix(message, securityErrPrefix),
		})

		return
	}

	c.AbortWithStatusJSON(statusCode, api.Error{
		Code:    int32(statusCode),
		Message: "validation error: " + message,
	})
}

// multiErrorHandler reports the first failure only, the same way the
// validator does without MultiError.
func multiErrorHandler(me openapi3.MultiError) error {
	if len(me) == 0 {
		return nil
	}

	err := me[0]

	var (
		requestErr  *openapi3filter.RequestError
		securityErr *openapi3filter.SecurityRequirementsError
	)

	switch {
	case errors.As(err, &requestErr):
		errorLines := strings.Split(requestErr.Error(), "\n")

		return fmt.Errorf("error in openapi3filter.RequestError: %s", errorLines[0])
	case errors.As(err, &securityErr):
		if len(securityErr.Errors) > 0 {
			err = securityErr.Errors[0]
		}

		return fmt.Errorf("%s%s", securityErrPrefix, err.Error())
	default:
		return fmt.Errorf("error validating request: %w", err)
	}
}
