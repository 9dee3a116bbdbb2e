package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/enroll/internal/store"
)

// submitApplicationRequest は入学申込のJSON構造。
type submitApplicationRequest struct {
	// Name は申込者の氏名。
	Name string `json:"name" binding:"required"`
	// Email は申込者のメールアドレス。
	Email string `json:"email" binding:"required"`
	// Mobile は申込者の電話番号。
	Mobile string `json:"mobile"`
	// Course は希望コース。
	Course string `json:"course"`
	// Message は自由記述欄。
	Message string `json:"message"`
}

// applicationResponse は入学申込のJSONレスポンス構造。
type applicationResponse struct {
	// ID は申込の一意識別子。
	ID string `json:"id"`
	// Name は申込者の氏名。
	Name string `json:"name"`
	// Email は申込者のメールアドレス。
	Email string `json:"email"`
	// Mobile は申込者の電話番号。
	Mobile string `json:"mobile"`
	// Course は希望コース。
	Course string `json:"course"`
	// Message は自由記述欄。
	Message string `json:"message"`
	// Status は審査状態。
	Status string `json:"status"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// toApplicationResponse は申込レコードをJSONレスポンスに変換する。
func toApplicationResponse(a store.Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Mobile:    a.Mobile,
		Course:    a.Course,
		Message:   a.Message,
		Status:    a.Status,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: a.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// handleSubmitApplication は入学申込の送信を処理するハンドラを返す。
// 公開フォームからの送信のため認証は不要。審査状態はpendingで開始する。
func (s *Server) handleSubmitApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitApplicationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "氏名とメールアドレスは必須です"})
			return
		}

		applicationID := uuid.New().String()
		if err := s.queries.CreateApplication(c.Request.Context(), store.CreateApplicationParams{
			ID:      applicationID,
			Name:    req.Name,
			Email:   req.Email,
			Mobile:  req.Mobile,
			Course:  req.Course,
			Message: req.Message,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "入学申込の送信に失敗しました"})
			log.Printf("入学申込作成エラー: %v", err)
			return
		}

		created, err := s.queries.GetApplicationByID(c.Request.Context(), applicationID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成した入学申込の取得に失敗しました"})
			log.Printf("入学申込取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, toApplicationResponse(created))
	}
}
