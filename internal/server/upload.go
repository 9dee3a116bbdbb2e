package server

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/enroll/internal/store"
	"github.com/nao1215/enroll/pkg/middleware"
)

// maxUploadSize はアップロードファイルの最大サイズ（5MB）。
const maxUploadSize = 5 * 1024 * 1024

// allowedImageTypes はプロフィール画像として許可するMIMEタイプ。
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedDocumentTypes は証明書として許可するMIMEタイプ。
var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// fileResponse はアップロードファイルのJSONレスポンス構造。
type fileResponse struct {
	// ID はファイルの一意識別子。
	ID string `json:"id"`
	// Kind はファイル種別。
	Kind string `json:"kind"`
	// Filename はサーバー側で付与したファイル名。
	Filename string `json:"filename"`
	// OriginalName はアップロード時の元のファイル名。
	OriginalName string `json:"original_name"`
	// MimeType はMIMEタイプ。
	MimeType string `json:"mime_type"`
	// Size はファイルサイズ（バイト）。
	Size int64 `json:"size"`
	// UploadedAt はアップロード日時。
	UploadedAt string `json:"uploaded_at"`
	// DataURL は表示用のdata URL。一覧取得などでは省略される。
	DataURL string `json:"data_url,omitempty"`
}

// toFileResponse はファイルレコードをJSONレスポンスに変換する。
// includeDataがtrueの場合、ブラウザで直接表示できるdata URLを含める。
func toFileResponse(f store.File, includeData bool) fileResponse {
	resp := fileResponse{
		ID:           f.ID,
		Kind:         f.Kind,
		Filename:     f.Filename,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		UploadedAt:   f.UploadedAt.Format("2006-01-02T15:04:05Z"),
	}
	if includeData {
		resp.DataURL = fmt.Sprintf("data:%s;base64,%s", f.MimeType, f.Data)
	}
	return resp
}

// toFileResponses は複数のファイルレコードをJSONレスポンスに変換する。
func toFileResponses(files []store.File, includeData bool) []fileResponse {
	responses := make([]fileResponse, 0, len(files))
	for _, f := range files {
		responses = append(responses, toFileResponse(f, includeData))
	}
	return responses
}

// readUpload はmultipartのファイルを検証して読み込み、ストアへの
// 保存パラメータを組み立てる。サイズ上限とMIMEタイプの許可リストを
// 超えるファイルはエラーになる。
func readUpload(userID, kind string, header *multipart.FileHeader, allowedTypes map[string]bool) (store.CreateFileParams, error) {
	if header.Size > maxUploadSize {
		return store.CreateFileParams{}, fmt.Errorf("ファイルサイズが上限（%dMB）を超えている", maxUploadSize/1024/1024)
	}

	mimeType := header.Header.Get("Content-Type")
	if !allowedTypes[mimeType] {
		return store.CreateFileParams{}, fmt.Errorf("許可されていないファイル形式: %s", mimeType)
	}

	f, err := header.Open()
	if err != nil {
		return store.CreateFileParams{}, fmt.Errorf("ファイルのオープンに失敗: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return store.CreateFileParams{}, fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	if len(data) > maxUploadSize {
		return store.CreateFileParams{}, fmt.Errorf("ファイルサイズが上限（%dMB）を超えている", maxUploadSize/1024/1024)
	}

	return store.CreateFileParams{
		ID:           uuid.New().String(),
		UserID:       userID,
		Kind:         kind,
		Filename:     fmt.Sprintf("%d-%s", time.Now().UnixMilli(), header.Filename),
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		Data:         base64.StdEncoding.EncodeToString(data),
	}, nil
}

// handleGetProfile は認証済みユーザーのプロフィールを返すハンドラを返す。
// プロフィール画像と証明書をdata URL付きで含める。
func (s *Server) handleGetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		user, err := s.queries.GetUserByID(c.Request.Context(), principal.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロフィールの取得に失敗しました"})
			log.Printf("プロフィール取得エラー: %v", err)
			return
		}

		files, err := s.queries.ListFilesByUser(c.Request.Context(), principal.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ファイル一覧の取得に失敗しました"})
			log.Printf("ファイル一覧取得エラー: %v", err)
			return
		}

		// プロフィール画像と証明書を分けて返す
		var profileImage *fileResponse
		certificates := make([]fileResponse, 0, len(files))
		for _, f := range files {
			if f.Kind == store.FileKindProfileImage {
				resp := toFileResponse(f, true)
				profileImage = &resp
				continue
			}
			certificates = append(certificates, toFileResponse(f, true))
		}

		c.JSON(http.StatusOK, gin.H{
			"user":          toAdminUserResponse(user),
			"profile_image": profileImage,
			"certificates":  certificates,
		})
	}
}

// updateProfileRequest はプロフィール更新リクエストのJSON構造。
type updateProfileRequest struct {
	// Name は表示名。
	Name string `json:"name" binding:"required"`
	// Phone は電話番号。
	Phone string `json:"phone"`
	// Address は住所。
	Address struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zip_code"`
		Country string `json:"country"`
	} `json:"address"`
}

// handleUpdateProfile は認証済みユーザーのプロフィールを更新するハンドラを返す。
// メールアドレスとロールはこのエンドポイントでは変更できない。
func (s *Server) handleUpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "名前は必須です"})
			return
		}

		err := s.queries.UpdateUserProfile(c.Request.Context(), store.UpdateUserProfileParams{
			Name:           req.Name,
			Phone:          req.Phone,
			AddressStreet:  req.Address.Street,
			AddressCity:    req.Address.City,
			AddressState:   req.Address.State,
			AddressZipCode: req.Address.ZipCode,
			AddressCountry: req.Address.Country,
			ID:             principal.ID,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロフィールの更新に失敗しました"})
			log.Printf("プロフィール更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetUserByID(c.Request.Context(), principal.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のプロフィールの取得に失敗しました"})
			log.Printf("プロフィール取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": toAdminUserResponse(updated)})
	}
}

// handleUploadProfileImage はプロフィール画像のアップロードを処理するハンドラを返す。
// 既存の画像がある場合は置き換える。
func (s *Server) handleUploadProfileImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		header, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "画像ファイルが指定されていません"})
			return
		}

		params, err := readUpload(principal.ID, store.FileKindProfileImage, header, allowedImageTypes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("アップロードできません: %v", err)})
			return
		}

		if err := s.queries.ReplaceFile(c.Request.Context(), params); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロフィール画像の保存に失敗しました"})
			log.Printf("プロフィール画像保存エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "プロフィール画像をアップロードしました",
			"profile_image": fileResponse{
				ID:           params.ID,
				Kind:         params.Kind,
				Filename:     params.Filename,
				OriginalName: params.OriginalName,
				MimeType:     params.MimeType,
				Size:         params.Size,
			},
		})
	}
}

// handleUploadCertificate は証明書のアップロードを処理するハンドラを返す。
// 種別が'other'の場合は複数件を許可し、それ以外は既存のファイルを置き換える。
func (s *Server) handleUploadCertificate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		kind := c.Param("kind")
		if !store.ValidFileKind(kind) || kind == store.FileKindProfileImage {
			c.JSON(http.StatusBadRequest, gin.H{"error": "証明書の種別が不正です"})
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "証明書ファイルが指定されていません"})
			return
		}

		params, err := readUpload(principal.ID, kind, header, allowedDocumentTypes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("アップロードできません: %v", err)})
			return
		}

		if kind == store.FileKindOther {
			err = s.queries.CreateFile(c.Request.Context(), params)
		} else {
			err = s.queries.ReplaceFile(c.Request.Context(), params)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "証明書の保存に失敗しました"})
			log.Printf("証明書保存エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "証明書をアップロードしました",
			"certificate": fileResponse{
				ID:           params.ID,
				Kind:         params.Kind,
				Filename:     params.Filename,
				OriginalName: params.OriginalName,
				MimeType:     params.MimeType,
				Size:         params.Size,
			},
		})
	}
}

// handleListCertificates は認証済みユーザーの証明書一覧を返すハンドラを返す。
// 一覧ではファイル本体（data URL）は含めない。
func (s *Server) handleListCertificates() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		files, err := s.queries.ListFilesByUser(c.Request.Context(), principal.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "証明書一覧の取得に失敗しました"})
			log.Printf("証明書一覧取得エラー: %v", err)
			return
		}

		certificates := make([]fileResponse, 0, len(files))
		for _, f := range files {
			if f.Kind == store.FileKindProfileImage {
				continue
			}
			certificates = append(certificates, toFileResponse(f, false))
		}

		c.JSON(http.StatusOK, gin.H{"certificates": certificates})
	}
}

// handleGetCertificate は証明書1件をdata URL付きで返すハンドラを返す。
// 他のユーザーのファイルは所有者チェックにより404になる。
func (s *Server) handleGetCertificate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		file, err := s.queries.GetFile(c.Request.Context(), store.GetFileParams{
			ID:     c.Param("id"),
			UserID: principal.ID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "証明書が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "証明書の取得に失敗しました"})
			log.Printf("証明書取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"certificate": toFileResponse(file, true)})
	}
}

// handleDeleteCertificate は証明書を削除するハンドラを返す。
// 他のユーザーのファイルは所有者チェックにより404になる。
func (s *Server) handleDeleteCertificate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		err := s.queries.DeleteFile(c.Request.Context(), store.DeleteFileParams{
			ID:     c.Param("id"),
			UserID: principal.ID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "証明書が見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "証明書の削除に失敗しました"})
			log.Printf("証明書削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "証明書を削除しました"})
	}
}
