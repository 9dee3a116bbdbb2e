package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/enroll/internal/auth"
	"github.com/nao1215/enroll/internal/config"
	"github.com/nao1215/enroll/internal/store"
	"github.com/nao1215/enroll/pkg/middleware"
)

// setupTestServer はインメモリDBを使うテスト用サーバーを生成する。
// ルーティングとミドルウェアは本番と同じ構成を使用する。
func setupTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("テスト用DBのオープンに失敗: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	queries := store.New(db)
	authService := auth.NewService(
		queries,
		auth.NewHasher(bcrypt.MinCost),
		auth.NewTokenIssuer("test-secret", time.Hour),
	)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS([]string{"http://localhost:3000"}))

	s := &Server{
		router:      router,
		cfg:         config.Config{Port: "8080"},
		queries:     queries,
		db:          db,
		authService: authService,
	}
	s.setupRoutes()
	return s
}

// doRequest はJSONリクエストを送信してレスポンスを返す。
// tokenが空でない場合はAuthorizationヘッダーに設定する。
func doRequest(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("リクエストボディのエンコードに失敗: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// doUpload はmultipart/form-dataでファイルを送信してレスポンスを返す。
func doUpload(t *testing.T, s *Server, path, token, field, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("multipartパートの作成に失敗: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("ファイル内容の書き込みに失敗: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("multipartのクローズに失敗: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decodeResponse はJSONレスポンスをマップにデコードする。
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v: %s", err, w.Body.String())
	}
	return body
}

// registerTestUser はHTTP経由でユーザーを登録し、トークンとユーザーIDを返す。
func registerTestUser(t *testing.T, s *Server, name, email, password string) (token, userID string) {
	t.Helper()

	w := doRequest(t, s, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("テストユーザーの登録に失敗: status=%d body=%s", w.Code, w.Body.String())
	}

	body := decodeResponse(t, w)
	token, _ = body["token"].(string)
	user, _ := body["user"].(map[string]any)
	userID, _ = user["id"].(string)
	if token == "" || userID == "" {
		t.Fatalf("登録レスポンスが不正: %s", w.Body.String())
	}
	return token, userID
}

// registerTestAdmin は管理者ユーザーを登録し、再ログインしてトークンと
// ユーザーIDを返す。ロールの昇格はストアを直接更新する。
func registerTestAdmin(t *testing.T, s *Server, email string) (token, userID string) {
	t.Helper()

	_, userID = registerTestUser(t, s, "管理者", email, "admin-pass")
	err := s.queries.UpdateUserRole(context.Background(), store.UpdateUserRoleParams{
		ID:   userID,
		Role: store.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("管理者への昇格に失敗: %v", err)
	}

	// ロールはリクエストごとにストアから再解決されるため、昇格前に発行された
	// トークンでも管理者として扱われる。ここでは発行し直して返す。
	w := doRequest(t, s, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": "admin-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("管理者のログインに失敗: status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeResponse(t, w)
	token, _ = body["token"].(string)
	return token, userID
}

// TestHealthCheck はヘルスチェックエンドポイントを検証する。
func TestHealthCheck(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeResponse(t, w)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want %q", body["status"], "ok")
	}
	if body["service"] != "enroll" {
		t.Errorf("service = %v, want %q", body["service"], "enroll")
	}
}
