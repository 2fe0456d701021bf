package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-gonic/gin"
	middleware "github.com/oapi-codegen/gin-middleware"

	featureflags "github.com/sandbox-pool/infra/packages/shared/pkg/feature-flags"
	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
	"github.com/sandbox-pool/infra/packages/shared/pkg/telemetry"
)

const (
	SecuritySchemeName = "UserEmailAuth"

	EmailHeader = "X-User-Email"
	RolesHeader = "X-User-Roles"

	userContextKey = "user"
)

var ErrMissingUser = errors.New("missing authenticated user")

// FromHeaders reads the caller set by the authenticating proxy. Callers
// without roles are plain users.
func FromHeaders(header http.Header) (User, error) {
	email := strings.TrimSpace(header.Get(EmailHeader))
	if email == "" {
		return User{}, ErrMissingUser
	}

	roles := ParseRoles(header.Get(RolesHeader))
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}

	return User{Email: email, Roles: roles}, nil
}

// Authenticate is the request validator's AuthenticationFunc.
func Authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecuritySchemeName != SecuritySchemeName {
		return fmt.Errorf("invalid security scheme name '%s'", input.SecuritySchemeName)
	}

	user, err := FromHeaders(input.RequestValidationInput.Request.Header)
	if err != nil {
		return err
	}

	c := middleware.GetGinContext(ctx)
	Attach(c, user)
	telemetry.ReportEvent(c.Request.Context(), "caller authenticated")

	return nil
}

// Attach stores user on c and on its request context.
func Attach(c *gin.Context, user User) {
	ctx := WithUser(c.Request.Context(), user)
	ctx = logger.WithContextUserEmail(ctx, user.Email)
	ctx = featureflags.CreateContext(ctx, featureflags.UserContext(user.Email))

	c.Request = c.Request.WithContext(ctx)
	c.Set(userContextKey, user)
}

// MustUser returns the caller stored by Attach.
func MustUser(c *gin.Context) User {
	return c.MustGet(userContextKey).(User)
}
