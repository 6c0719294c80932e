package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/annel0/adventure-world/internal/auth"
	"github.com/gin-gonic/gin"
)

// corsMiddleware разрешает запросы из браузерных инструментов
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// adminMiddleware проверяет "Bearer <token>" для мутирующих запросов.
// Подходит сам токен из конфигурации или JWT администратора, подписанный им.
// Пустой токен в конфигурации отключает проверку.
func (rs *RestServer) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.adminToken == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Неверный формат токена",
			})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(rs.adminToken)) == 1 {
			c.Next()
			return
		}

		claims, err := auth.ValidateAdminToken([]byte(rs.adminToken), parts[1])
		if err != nil {
			c.JSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Недостаточно прав доступа",
			})
			c.Abort()
			return
		}

		c.Set("admin", claims.Subject)
		c.Next()
	}
}
