package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ait-forum/forum-api/internal/api/metrics"
	"github.com/ait-forum/forum-api/internal/core/authz"
	"github.com/ait-forum/forum-api/internal/core/domain"
)

// Authorize evaluates the role authorization policy for the given action
// before the handler runs. ownerParam names the path parameter holding the
// resource owner's login; empty means the action has no owned resource.
// A denial surfaces as domain.ErrForbidden and no handler code executes,
// so a forbidden request never performs a partial mutation.
func Authorize(action authz.Action, ownerParam string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			login, _ := c.Get("login").(string)
			roles, _ := c.Get("roles").(domain.RoleSet)

			owner := ""
			if ownerParam != "" {
				owner = c.Param(ownerParam)
			}

			decision := authz.Authorize(login, roles, action, owner)
			metrics.AuthzDecisionsTotal.WithLabelValues(string(action), decision.String()).Inc()
			if decision != authz.Allow {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
