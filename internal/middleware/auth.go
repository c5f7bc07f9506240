package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"sudooom.im.mafia/pkg/response"
	sharedErrors "sudooom.im.mafia/shared/errors"
	"sudooom.im.mafia/shared/jwt"
)

const (
	contextPlayerID  = "player_id"
	contextSessionID = "session_id"
)

// JWTAuth 玩家令牌认证中间件
// 令牌只在签发它的会话内有效，路径参数 :id 与令牌中的会话不一致时拒绝
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidatePlayerToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Error(c, sharedErrors.ErrTokenExpired)
			} else {
				response.Error(c, sharedErrors.ErrTokenInvalid)
			}
			c.Abort()
			return
		}

		if id := c.Param("id"); id != "" && id != claims.SessionID {
			response.Error(c, sharedErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(contextPlayerID, claims.PlayerID)
		c.Set(contextSessionID, claims.SessionID)
		c.Next()
	}
}

// extractToken 从 Authorization header 提取 token
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// GetPlayerID 从 context 获取 player_id
func GetPlayerID(c *gin.Context) string {
	return c.GetString(contextPlayerID)
}

// GetSessionID 从 context 获取 session_id
func GetSessionID(c *gin.Context) string {
	return c.GetString(contextSessionID)
}
