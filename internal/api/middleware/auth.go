package middleware

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/ait-forum/forum-api/internal/core/authz"
	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/password"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

// Auth authenticates the request and injects the caller identity into the
// echo context ("login", "roles") and the request context. Two schemes are
// accepted:
//
//   - Basic: credentials are resolved against the account store and verified
//     with the password hasher on every request.
//   - Bearer: an HS256 token issued by the login endpoint, carrying the
//     login and role claims.
func Auth(accounts ports.AccountRepository, hasher *password.Hasher, jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			var (
				login string
				roles domain.RoleSet
				err   error
			)
			switch {
			case strings.EqualFold(parts[0], "basic"):
				login, roles, err = verifyBasic(c, accounts, hasher, parts[1])
			case strings.EqualFold(parts[0], "bearer"):
				login, roles, err = verifyBearer(jwtSecret, parts[1])
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "unsupported authorization scheme")
			}
			if err != nil {
				return err
			}

			c.Set("login", login)
			c.Set("roles", roles)
			ctx := authz.WithCaller(c.Request().Context(), authz.Caller{Login: login, Roles: roles})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func verifyBasic(c echo.Context, accounts ports.AccountRepository, hasher *password.Hasher, payload string) (string, domain.RoleSet, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid basic credentials")
	}
	login, rawPassword, ok := strings.Cut(string(raw), ":")
	if !ok || login == "" {
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid basic credentials")
	}

	account, err := accounts.FindByLogin(c.Request().Context(), login)
	if err != nil {
		// Unknown logins burn a hash comparison too, so the response time
		// does not reveal whether the login exists.
		hasher.DummyVerify(rawPassword)
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hasher.Verify(rawPassword, account.PasswordHash) {
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	return account.Login, account.Roles, nil
}

func verifyBearer(jwtSecret, token string) (string, domain.RoleSet, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	login, _ := claims["login"].(string)
	if login == "" {
		return "", nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
	}

	roles := domain.NewRoleSet()
	if names, ok := claims["roles"].([]interface{}); ok {
		for _, n := range names {
			if s, ok := n.(string); ok {
				if role, valid := domain.ParseRole(s); valid {
					roles.Add(role)
				}
			}
		}
	}

	return login, roles, nil
}
