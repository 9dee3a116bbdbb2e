package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/enroll/internal/auth"
	"github.com/nao1215/enroll/internal/store"
	"github.com/nao1215/enroll/pkg/middleware"
)

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	// Name は表示名。
	Name string `json:"name" binding:"required"`
	// Email はログインに使用するメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password は平文パスワード。ログには出力しない。
	Password string `json:"password" binding:"required"`
}

// loginRequest はログインリクエストのJSON構造。
// フィールドの欠落も認証失敗として扱うため、bindingによる必須指定はしない。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email"`
	// Password は平文パスワード。
	Password string `json:"password"`
}

// userResponse はユーザーのJSONレスポンス構造。
// パスワードハッシュは決して含めない。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Role はロール。
	Role string `json:"role"`
}

// sessionResponse は登録・ログイン成功時のJSONレスポンス構造。
type sessionResponse struct {
	// Token は発行されたBearerトークン。
	Token string `json:"token"`
	// User は認証されたユーザー。
	User userResponse `json:"user"`
}

// toUserResponse はユーザーレコードをJSONレスポンスに変換する。
func toUserResponse(u store.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// handleRegister はユーザー登録を処理するハンドラを返す。
// 成功時は201でトークンとユーザー情報を返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "名前、メールアドレス、パスワードは必須です"})
			return
		}

		session, err := s.authService.Register(c.Request.Context(), auth.RegisterParams{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "名前、メールアドレス、パスワードは必須です"})
			return
		case errors.Is(err, auth.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "このメールアドレスは既に登録されています"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("ユーザー登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, sessionResponse{
			Token: session.Token,
			User:  toUserResponse(session.User),
		})
	}
}

// handleLogin はログインを処理するハンドラを返す。
// メールアドレス未登録とパスワード不一致はレスポンスから区別できない。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}

		session, err := s.authService.Login(c.Request.Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			log.Printf("ログインエラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, sessionResponse{
			Token: session.Token,
			User:  toUserResponse(session.User),
		})
	}
}

// handleLogout はログアウトを処理するハンドラを返す。
// トークンはステートレスでサーバー側に失効リストを持たないため、
// クライアント側でのトークン破棄を促すだけの応答になる。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ログアウトしました"})
	}
}

// handleMe は認証済みユーザー自身の情報を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": userResponse{
			ID:    principal.ID,
			Name:  principal.Name,
			Email: principal.Email,
			Role:  principal.Role,
		}})
	}
}
