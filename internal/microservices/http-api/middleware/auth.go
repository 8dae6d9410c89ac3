package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ratings/internal/identity"
	"ratings/internal/microservices/http-api/service"
)

const callerKey = "caller"

// OptionalAuth resolves the caller for every request. Requests without an
// Authorization header continue as anonymous callers identified by client IP;
// a header that is present but malformed or invalid is rejected.
func OptionalAuth(tokens service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := identity.Anonymous(c.ClientIP())

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			// Extract token (format: "Bearer <token>")
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				c.Abort()
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}

			caller.UserID = claims.UserID
			caller.Username = claims.Username
			caller.Role = claims.Role
			caller.Authenticated = true
		}

		c.Set(callerKey, caller)
		c.Request = c.Request.WithContext(identity.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// RequireAuth rejects anonymous callers. It must run after OptionalAuth.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Caller(c).Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole checks if the user has the specified role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := Caller(c)
		if !caller.Authenticated || caller.Role != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "Insufficient permissions",
				"required": requiredRole,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Caller returns the identity resolved by OptionalAuth, or an anonymous
// caller at the client IP when the middleware did not run.
func Caller(c *gin.Context) identity.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(identity.Caller); ok {
			return caller
		}
	}
	return identity.Anonymous(c.ClientIP())
}
