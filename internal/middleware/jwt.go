package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTAuth verifies an HS256 bearer token and stores its subject as "userID". Browsers cannot
// set headers on websocket handshakes, so an access_token query parameter is accepted too.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/metrics" || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		switch {
		case strings.HasPrefix(strings.ToLower(authHeader), "bearer "):
			tokenString = strings.TrimSpace(authHeader[7:])
		case authHeader == "" && c.Query("access_token") != "":
			tokenString = c.Query("access_token")
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sub missing in token"})
			c.Abort()
			return
		}
		userID, err := uuid.Parse(subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid subject in token"})
			c.Abort()
			return
		}

		c.Set("userID", userID.String())
		c.Next()
	}
}
