package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// newRoleTestRouter は指定のプリンシパルを注入した上でRequireRoleを適用した
// テスト用ルーターを生成する。principalがnilの場合は何も注入しない。
func newRoleTestRouter(principal *Principal, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	inject := func(c *gin.Context) {
		if principal != nil {
			c.Set(contextKeyPrincipal, *principal)
		}
		c.Next()
	}
	router.GET("/admin", inject, RequireRole(role), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// TestRequireRole はロールによるアクセス制御を検証する。
func TestRequireRole(t *testing.T) {
	t.Parallel()

	t.Run("要求ロールを持つユーザーがアクセスできること", func(t *testing.T) {
		t.Parallel()

		router := newRoleTestRouter(&Principal{ID: "admin-1", Role: "admin"}, "admin")
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("ロールが一致しないユーザーが403になること", func(t *testing.T) {
		t.Parallel()

		router := newRoleTestRouter(&Principal{ID: "user-1", Role: "user"}, "admin")
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("プリンシパルがない場合に401になること", func(t *testing.T) {
		t.Parallel()

		router := newRoleTestRouter(nil, "admin")
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}
