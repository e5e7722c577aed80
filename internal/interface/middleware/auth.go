package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sharecycle/accounts/pkg/helpers"
	"github.com/sharecycle/accounts/pkg/response"
)

const (
	CtxAccountIDKey = "accountID"
	CtxSessionIDKey = "sessionID"
)

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Auth validates the access token and checks that the Redis session it
// belongs to is still alive and carries the same session id, so a
// logout or refresh elsewhere invalidates older tokens.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token")
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token")
			return
		}

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), "account:session:"+claims.AccountID).Result()
			if err != nil || len(data) == 0 {
				response.Abort(c, http.StatusUnauthorized, "session expired")
				return
			}
			if data["sid"] != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "session superseded")
				return
			}
		}

		c.Set(CtxAccountIDKey, claims.AccountID)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}
