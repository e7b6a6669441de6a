package middlewares

import (
	"strings"

	t_token "rental_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	// QueryToken token in query name (websocket client 無法帶 header 時使用)
	QueryToken = "auth"

	// TokenUserID get user from token, set c.Locals name
	TokenUserID = "UserID"
)

// ExtractBearer 從 authorization header 取出 bearer token。
// scheme 大小寫不限，token 前的空格可有可無 ("Bearer x" / "bearer x" / "Bearerx")。
func ExtractBearer(header string) (string, bool) {
	normalized := strings.TrimSpace(header)
	if len(normalized) < len("bearer") {
		return "", false
	}
	if !strings.EqualFold(normalized[:len("bearer")], "bearer") {
		return "", false
	}
	return strings.TrimSpace(normalized[len("bearer"):]), true
}

// JWTMiddleware validates JWT in the Authorization header；REST 路由用，無效直接 401
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := ExtractBearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			tokenStr = c.Query(QueryToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := t_token.ParseJWT(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(TokenUserID, claims.UserID)
		return c.Next()
	}
}

// HandshakeAuth websocket 握手用。驗證成功就把 principal 綁上連線，
// 失敗不擋連線，之後需要 principal 的操作自行回 Unauthorized。
func HandshakeAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := ExtractBearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			tokenStr = c.Query(QueryToken)
		}

		if tokenStr != "" {
			if claims, err := t_token.ParseJWT(tokenStr); err == nil {
				c.Locals(TokenUserID, claims.UserID)
			}
		}

		return c.Next()
	}
}
