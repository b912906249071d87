package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Staff roles. Customers hit the public checkout routes and carry no token.
const (
	RoleAdmin        = "admin"
	RoleManager      = "manager"
	RoleKitchenStaff = "kitchen_staff"
)

const claimsContextKey = "auth_claims"

// Claims are the JWT claims every staff token carries. TenantID scopes all
// data access; Role gates board mutations.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates a bearer token and returns its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TenantID == "" {
		return nil, errors.New("token missing tenant_id")
	}
	return claims, nil
}

// Middleware extracts and validates the Authorization bearer token and puts
// the claims on the gin context.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_bearer_token"})
			return
		}
		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// FromContext returns the claims the middleware stored.
func FromContext(c *gin.Context) *Claims {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// CanMoveOrder reports whether a role may move an order out of the given
// status. Kitchen staff never move cards; leaving PENDING (approval) is
// reserved for admin and manager. Enforced here, server-side, rather than
// trusting the client.
func CanMoveOrder(role, fromStatus string) bool {
	switch role {
	case RoleKitchenStaff:
		return false
	case RoleAdmin, RoleManager:
		return true
	default:
		// any other staff role may move cards except out of PENDING
		return fromStatus != "PENDING"
	}
}

// RequireRole aborts with 403 unless the caller has one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := FromContext(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
