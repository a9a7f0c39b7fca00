package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token shape the auth service issues: the subject user id
// under "id" plus the registered claims.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HMAC-signed token and returns the user id it
// carries.
func ParseToken(secret, token string) (domain.UserID, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return domain.UserID(claims.UserID), nil
}

// AuthMiddleware yields a verified user identity before any session
// operation. The token comes from the "token" cookie or a Bearer
// Authorization header.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("token")
		if token == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied. No token provided."})
			return
		}
		uid, err := ParseToken(secret, token)
		if err != nil {
			log.Warn().Str("module", "httpapi").Msg("token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		c.Set("user_id", string(uid))
		c.Next()
	}
}
