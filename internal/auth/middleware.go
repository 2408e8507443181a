// Package auth validates bearer tokens issued by the identity collaborator
// and exposes the signed-in profile to request handlers. The portal reasons
// about exactly two states: signed in and not signed in.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

const contextKey = "collaborator"

// Claims are the profile fields carried in the portal's JWTs.
type Claims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"name,omitempty"`
	Institution string `json:"institution,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Middleware parses the Authorization bearer token and stores the resulting
// profile in the request context. Requests without a valid token get 401.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(contextKey, &submissions.UserProfile{
			UID:         claims.Subject,
			DisplayName: claims.DisplayName,
			Institution: claims.Institution,
			Specialty:   claims.Specialty,
			Role:        claims.Role,
		})
		c.Next()
	}
}

// CollaboratorFrom returns the signed-in profile, or nil when the request is
// unauthenticated.
func CollaboratorFrom(c *gin.Context) *submissions.UserProfile {
	value, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	profile, ok := value.(*submissions.UserProfile)
	if !ok {
		return nil
	}
	return profile
}
