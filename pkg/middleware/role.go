package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole は指定されたロールを持つユーザーのみを通すGinミドルウェアを返す。
// Authミドルウェアの後に適用すること。Principalが未設定の場合は401、
// ロールが一致しない場合は403を返す。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "認証が必要です",
			})
			return
		}

		if principal.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "この操作を行う権限がありません",
			})
			return
		}

		c.Next()
	}
}
