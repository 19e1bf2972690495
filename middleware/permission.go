package middleware

import (
	"Bookstore/models"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// routeRule grants access to every path under prefix. An empty role means public.
type routeRule struct {
	prefix string
	role   models.Role
}

// Rules are checked in order, the first matching prefix wins.
// Paths that match nothing need a login but no particular role.
var routeRules = []routeRule{
	{prefix: "/authenticate"},
	{prefix: "/sign-up"},
	{prefix: "/health"},
	{prefix: "/uploads/"},
	{prefix: "/api/payment/config"},
	{prefix: "/api/admin/", role: models.RoleAdmin},
	{prefix: "/api/customer/", role: models.RoleUser},
	{prefix: "/api/payment/", role: models.RoleUser},
}

// Authorize answers 401 to anonymous callers of protected routes and 403 to callers without the route's role.
func Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		rule, public := matchRoute(c.Request.URL.Path)
		if public {
			c.Next()
			return
		}

		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if rule.role != "" && identity.Role != string(rule.role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

func matchRoute(path string) (routeRule, bool) {
	for _, rule := range routeRules {
		if strings.HasPrefix(path, rule.prefix) {
			return rule, rule.role == ""
		}
	}
	return routeRule{}, false
}

// RequireSelf rejects requests whose path parameter names another user.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		userID, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
			return
		}
		if uint(userID) != identity.UserID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
