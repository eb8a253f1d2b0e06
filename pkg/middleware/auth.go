package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-blog/pkg/jwt"
	"github.com/weiawesome/wes-blog/pkg/response"
)

const (
	UserIDKey       = "user_id"
	UsernameKey     = "username"
	RolesKey        = "roles"
	ClaimsKey       = "claims"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
	TokenCookieName = "access_token"
)

// TokenValidator is satisfied by *jwt.Manager.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates requests from a bearer token (header or
// cookie) issued by the external identity provider.
type AuthMiddleware struct {
	validator TokenValidator
	loginURL  string
}

// NewAuthMiddleware creates a new auth middleware. Unauthenticated
// requests to protected routes are redirected to loginURL with the
// original request URI in the "next" query parameter.
func NewAuthMiddleware(validator TokenValidator, loginURL string) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, loginURL: loginURL}
}

// RequireAuth aborts with a redirect to the login page when the request
// has no valid token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			m.RedirectToLogin(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth populates the principal when a valid token is present and
// lets anonymous requests through.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, role) {
			response.Forbidden(c, "requires role "+role)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectToLogin sends a 302 to the login page carrying the current
// request URI as "next".
func (m *AuthMiddleware) RedirectToLogin(c *gin.Context) {
	response.Found(c, LoginRedirect(m.loginURL, c.Request.URL.RequestURI()))
}

// LoginRedirect builds "<loginURL>?next=<next>", preserving any query the
// login URL already has.
func LoginRedirect(loginURL, next string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL + "?next=" + url.QueryEscape(next)
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	token := extractToken(c)
	if token == "" {
		return false
	}

	claims, err := m.validator.ValidateToken(token)
	if err != nil {
		return false
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(UsernameKey, claims.Username)
	c.Set(RolesKey, claims.Roles)
	c.Set(ClaimsKey, claims)
	return true
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, BearerPrefix))
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil {
		return cookie
	}
	return ""
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUsername extracts username from Gin context.
func GetUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

// GetRoles extracts roles from Gin context.
func GetRoles(c *gin.Context) []string {
	return c.GetStringSlice(RolesKey)
}

// GetClaims returns the validated token claims, or nil when the request
// is anonymous.
func GetClaims(c *gin.Context) *jwt.Claims {
	claims, _ := c.Get(ClaimsKey)
	v, _ := claims.(*jwt.Claims)
	return v
}

// HasRole reports whether the authenticated principal holds role.
func HasRole(c *gin.Context, role string) bool {
	claims := GetClaims(c)
	return claims != nil && claims.HasRole(role)
}

// IsAuthenticated reports whether a principal was set on the context.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}

