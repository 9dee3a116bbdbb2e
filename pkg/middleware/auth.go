package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Principal は認証済みユーザーを表す。
// トークン検証後にストアから再解決された現在の情報を保持する。
// ロールはトークン発行時の埋め込み値ではなく、ストアの最新値を使用する。
type Principal struct {
	// ID はユーザーの一意識別子。
	ID string
	// Name は表示名。
	Name string
	// Email はメールアドレス。
	Email string
	// Role はロール。
	Role string
}

// Authenticator はBearerトークンを検証し、認証済みユーザーを解決する。
// 署名・有効期限の検証に加えて、ユーザーがまだ存在することをストアで
// 確認する責務を持つ。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// contextKeyPrincipal はGinコンテキストにPrincipalを格納するキー。
const contextKeyPrincipal = "principal"

// Auth はBearerトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストにPrincipalを設定する。
// 失敗理由（ヘッダー欠落・形式不正・署名不正・期限切れ・ユーザー削除済み）は
// ログにのみ残し、クライアントへは一様に401を返す。
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Printf("トークン検証エラー: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set(contextKeyPrincipal, principal)
		c.Next()
	}
}

// GetPrincipal はGinコンテキストから認証済みユーザーを取得する。
// Authミドルウェアが事前に適用されている必要がある。
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(contextKeyPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
