package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
	"github.com/madeeasy/coursehub/internal/token"
)

// PathRule declares the access policy for one route. Path is the registered
// Echo route template (e.g. "/user-service/get/:email"); Method "*" matches
// any method. An empty Roles set marks the route public.
type PathRule struct {
	Method string
	Path   string
	Roles  []string
}

// Authorizer resolves the access policy for an incoming request. Routes with
// no declared rule require authentication with any role; anonymous access
// exists only where a rule explicitly grants it.
type Authorizer struct {
	rules []PathRule
}

func NewAuthorizer(rules []PathRule) *Authorizer {
	return &Authorizer{rules: rules}
}

// Lookup returns the required roles for the route and whether it is public.
func (a *Authorizer) Lookup(method, routePath string) (roles []string, public bool) {
	for _, r := range a.rules {
		if r.Method != "*" && r.Method != method {
			continue
		}
		if !matchPath(r.Path, routePath) {
			continue
		}
		return r.Roles, len(r.Roles) == 0
	}
	return nil, false
}

// matchPath compares rule paths against the registered route template.
// A trailing "/*" makes the rule a prefix match.
func matchPath(rulePath, routePath string) bool {
	if prefix, ok := strings.CutSuffix(rulePath, "/*"); ok {
		return routePath == prefix || strings.HasPrefix(routePath, prefix+"/")
	}
	return rulePath == routePath
}

// Auth enforces the access policy: it verifies the bearer token's signature,
// confirms it is still usable against the token store, checks the caller's
// roles, and injects the authenticated identity into context. The raw bearer
// is also placed on the request context so outbound calls forward it.
func Auth(codec *token.Codec, validator ports.TokenValidator, authz *Authorizer, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			required, public := authz.Lookup(c.Request().Method, c.Path())
			if public {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return domain.E(domain.KindBadCredentials, "missing authorization header")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return domain.E(domain.KindBadCredentials, "invalid authorization header")
			}
			raw := parts[1]

			identity, err := codec.Parse(domain.TokenAccess, raw)
			if err != nil {
				return err
			}

			usable, err := validator.ValidateAccessToken(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			if !usable {
				return domain.E(domain.KindTokenUnusable, "token is revoked or expired")
			}

			roleNames := domain.RoleNames(identity.Roles)
			if len(required) > 0 && !anyRole(roleNames, required) {
				log.Warn().
					Str("subject", identity.Subject).
					Strs("roles", roleNames).
					Str("path", c.Path()).
					Msg("role check failed")
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}

			c.Set("email", identity.Subject)
			c.Set("roles", roleNames)
			c.SetRequest(c.Request().WithContext(
				domain.ContextWithBearer(c.Request().Context(), raw)))

			return next(c)
		}
	}
}

func anyRole(have, want []string) bool {
	allowed := make(map[string]struct{}, len(want))
	for _, r := range want {
		allowed[r] = struct{}{}
	}
	for _, r := range have {
		if _, ok := allowed[r]; ok {
			return true
		}
	}
	return false
}
