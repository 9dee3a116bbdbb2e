package server

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/enroll/internal/store"
)

// 一覧取得時のページングの既定値と上限。
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pagination はページング情報のJSONレスポンス構造。
type pagination struct {
	// Total は条件に一致する総件数。
	Total int64 `json:"total"`
	// Page は現在のページ番号（1始まり）。
	Page int64 `json:"page"`
	// Limit は1ページあたりの件数。
	Limit int64 `json:"limit"`
	// Pages は総ページ数。
	Pages int64 `json:"pages"`
}

// parsePagination はクエリパラメータからページ番号と件数を取り出す。
// 不正な値は既定値に丸める。
func parsePagination(c *gin.Context) (page, limit int64) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)), 10, 64)
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// newPagination はページング情報を計算する。
func newPagination(total, page, limit int64) pagination {
	pages := (total + limit - 1) / limit
	return pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// addressResponse は住所のJSONレスポンス構造。
type addressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// adminUserResponse は管理コンソール向けのユーザーJSONレスポンス構造。
// パスワードハッシュは決して含めない。
type adminUserResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Role はロール。
	Role string `json:"role"`
	// Phone は電話番号。
	Phone string `json:"phone"`
	// Address は住所。
	Address addressResponse `json:"address"`
	// CreatedAt は登録日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// toAdminUserResponse はユーザーレコードを管理コンソール向けレスポンスに変換する。
func toAdminUserResponse(u store.User) adminUserResponse {
	return adminUserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Phone: u.Phone,
		Address: addressResponse{
			Street:  u.AddressStreet,
			City:    u.AddressCity,
			State:   u.AddressState,
			ZipCode: u.AddressZipCode,
			Country: u.AddressCountry,
		},
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: u.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// dashboardStats はダッシュボードの集計値。
type dashboardStats struct {
	// TotalUsers は一般ユーザーの総数（管理者を除く）。
	TotalUsers int64 `json:"total_users"`
	// TotalApplications は入学申込の総数。
	TotalApplications int64 `json:"total_applications"`
	// PendingApplications は未審査の申込数。
	PendingApplications int64 `json:"pending_applications"`
	// ApprovedApplications は承認済みの申込数。
	ApprovedApplications int64 `json:"approved_applications"`
	// RejectedApplications は不承認の申込数。
	RejectedApplications int64 `json:"rejected_applications"`
}

// handleDashboard はダッシュボードの統計情報を返すハンドラを返す。
// 集計値と直近の申込・登録ユーザーを返す。
func (s *Server) handleDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var stats dashboardStats
		var err error

		stats.TotalUsers, err = s.queries.CountUsers(ctx, "")
		if err == nil {
			stats.TotalApplications, err = s.queries.CountApplications(ctx, store.CountApplicationsParams{})
		}
		if err == nil {
			stats.PendingApplications, err = s.queries.CountApplications(ctx, store.CountApplicationsParams{Status: store.ApplicationStatusPending})
		}
		if err == nil {
			stats.ApprovedApplications, err = s.queries.CountApplications(ctx, store.CountApplicationsParams{Status: store.ApplicationStatusApproved})
		}
		if err == nil {
			stats.RejectedApplications, err = s.queries.CountApplications(ctx, store.CountApplicationsParams{Status: store.ApplicationStatusRejected})
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "統計情報の取得に失敗しました"})
			log.Printf("ダッシュボード集計エラー: %v", err)
			return
		}

		recentApps, err := s.queries.ListRecentApplications(ctx, 5)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "直近の入学申込の取得に失敗しました"})
			log.Printf("直近申込取得エラー: %v", err)
			return
		}

		recentUsers, err := s.queries.ListRecentUsers(ctx, 5)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "直近の登録ユーザーの取得に失敗しました"})
			log.Printf("直近ユーザー取得エラー: %v", err)
			return
		}

		appResponses := make([]applicationResponse, 0, len(recentApps))
		for _, a := range recentApps {
			appResponses = append(appResponses, toApplicationResponse(a))
		}
		userResponses := make([]adminUserResponse, 0, len(recentUsers))
		for _, u := range recentUsers {
			userResponses = append(userResponses, toAdminUserResponse(u))
		}

		c.JSON(http.StatusOK, gin.H{
			"stats":               stats,
			"recent_applications": appResponses,
			"recent_users":        userResponses,
		})
	}
}

// handleListUsers は一般ユーザーの一覧を返すハンドラを返す。
// ページングと、名前・メールアドレスの部分一致検索に対応する。
func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := parsePagination(c)
		search := c.Query("search")

		total, err := s.queries.CountUsers(c.Request.Context(), search)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー数の取得に失敗しました"})
			log.Printf("ユーザー数取得エラー: %v", err)
			return
		}

		users, err := s.queries.ListUsers(c.Request.Context(), store.ListUsersParams{
			Search: search,
			Limit:  limit,
			Offset: (page - 1) * limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー一覧の取得に失敗しました"})
			log.Printf("ユーザー一覧取得エラー: %v", err)
			return
		}

		responses := make([]adminUserResponse, 0, len(users))
		for _, u := range users {
			responses = append(responses, toAdminUserResponse(u))
		}

		c.JSON(http.StatusOK, gin.H{
			"users":      responses,
			"pagination": newPagination(total, page, limit),
		})
	}
}

// handleGetUser はユーザー詳細を返すハンドラを返す。
// アップロード済みファイル（プロフィール画像・証明書）も含める。
func (s *Server) handleGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		user, err := s.queries.GetUserByID(c.Request.Context(), userID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		files, err := s.queries.ListFilesByUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ファイル一覧の取得に失敗しました"})
			log.Printf("ファイル一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":  toAdminUserResponse(user),
			"files": toFileResponses(files, true),
		})
	}
}

// updateUserRoleRequest はロール更新リクエストのJSON構造。
type updateUserRoleRequest struct {
	// Role は設定するロール（'user' または 'admin'）。
	Role string `json:"role" binding:"required"`
}

// handleUpdateUserRole はユーザーのロールを更新するハンドラを返す。
func (s *Server) handleUpdateUserRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var req updateUserRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ロールは必須です"})
			return
		}
		if req.Role != store.RoleUser && req.Role != store.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ロールが不正です"})
			return
		}

		err := s.queries.UpdateUserRole(c.Request.Context(), store.UpdateUserRoleParams{
			Role: req.Role,
			ID:   userID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ロールの更新に失敗しました"})
			log.Printf("ロール更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のユーザーの取得に失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": toAdminUserResponse(updated)})
	}
}

// handleDeleteUser はユーザーを削除するハンドラを返す。
// 管理者アカウントの削除は拒否する。
func (s *Server) handleDeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		user, err := s.queries.GetUserByID(c.Request.Context(), userID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		if user.Role == store.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "管理者アカウントは削除できません"})
			return
		}

		if err := s.queries.DeleteUser(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの削除に失敗しました"})
			log.Printf("ユーザー削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "ユーザーを削除しました"})
	}
}

// handleListApplications は入学申込の一覧を返すハンドラを返す。
// 審査状態での絞り込み、ページング、氏名・メールアドレスの検索に対応する。
func (s *Server) handleListApplications() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := parsePagination(c)
		search := c.Query("search")

		status := c.Query("status")
		if status != "" && !store.ValidApplicationStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "審査状態が不正です"})
			return
		}

		total, err := s.queries.CountApplications(c.Request.Context(), store.CountApplicationsParams{
			Status: status,
			Search: search,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "入学申込数の取得に失敗しました"})
			log.Printf("申込数取得エラー: %v", err)
			return
		}

		apps, err := s.queries.ListApplications(c.Request.Context(), store.ListApplicationsParams{
			Status: status,
			Search: search,
			Limit:  limit,
			Offset: (page - 1) * limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "入学申込一覧の取得に失敗しました"})
			log.Printf("申込一覧取得エラー: %v", err)
			return
		}

		responses := make([]applicationResponse, 0, len(apps))
		for _, a := range apps {
			responses = append(responses, toApplicationResponse(a))
		}

		c.JSON(http.StatusOK, gin.H{
			"applications": responses,
			"pagination":   newPagination(total, page, limit),
		})
	}
}

// handleGetApplication は入学申込の詳細を返すハンドラを返す。
func (s *Server) handleGetApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		app, err := s.queries.GetApplicationByID(c.Request.Context(), c.Param("id"))
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "入学申込が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "入学申込の取得に失敗しました"})
			log.Printf("申込取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"application": toApplicationResponse(app)})
	}
}

// updateApplicationStatusRequest は審査状態更新リクエストのJSON構造。
type updateApplicationStatusRequest struct {
	// Status は設定する審査状態。
	Status string `json:"status" binding:"required"`
}

// handleUpdateApplicationStatus は入学申込の審査状態を更新するハンドラを返す。
func (s *Server) handleUpdateApplicationStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		applicationID := c.Param("id")

		var req updateApplicationStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "審査状態は必須です"})
			return
		}
		if !store.ValidApplicationStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "審査状態が不正です"})
			return
		}

		err := s.queries.UpdateApplicationStatus(c.Request.Context(), store.UpdateApplicationStatusParams{
			Status: req.Status,
			ID:     applicationID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "入学申込が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "審査状態の更新に失敗しました"})
			log.Printf("審査状態更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetApplicationByID(c.Request.Context(), applicationID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後の入学申込の取得に失敗しました"})
			log.Printf("申込取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"application": toApplicationResponse(updated)})
	}
}

// handleDeleteApplication は入学申込を削除するハンドラを返す。
func (s *Server) handleDeleteApplication() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.queries.DeleteApplication(c.Request.Context(), c.Param("id"))
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "入学申込が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "入学申込の削除に失敗しました"})
			log.Printf("申込削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "入学申込を削除しました"})
	}
}
