package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nao1215/enroll/internal/store"
	"github.com/nao1215/enroll/pkg/middleware"
)

// Service は登録・ログイン・トークン検証をオーケストレーションする。
type Service struct {
	// queries はユーザーレコードの永続化層。
	queries *store.Queries
	// hasher はパスワードのハッシュ化と検証を行う。
	hasher *Hasher
	// issuer はトークンの発行と解析を行う。
	issuer *TokenIssuer
}

// NewService は新しい認証サービスを生成する。
func NewService(queries *store.Queries, hasher *Hasher, issuer *TokenIssuer) *Service {
	return &Service{queries: queries, hasher: hasher, issuer: issuer}
}

// Session は登録・ログイン成功時の結果。ユーザーと発行済みトークンを保持する。
type Session struct {
	// User は認証されたユーザーのレコード。
	User store.User
	// Token は発行されたBearerトークン。
	Token string
}

// RegisterParams はユーザー登録のパラメータ。
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Register は新しいユーザーを登録し、トークンを発行する。
//
// 全フィールドが必須（ErrInvalidInput）。メールアドレスは小文字に正規化し、
// 大文字小文字を区別せずに重複を拒否する（ErrAlreadyExists）。同時登録の
// 競合はストアのUNIQUEインデックスで解決され、敗者もErrAlreadyExistsを
// 観測する。レコードの保存はすべての事前検証の後に行うため、失敗時に
// 中途半端な状態は残らない。保存後のトークン発行失敗はサーバーエラーで
// あり、レコードのロールバックは行わない。
func (s *Service) Register(ctx context.Context, arg RegisterParams) (Session, error) {
	name := strings.TrimSpace(arg.Name)
	email := strings.ToLower(strings.TrimSpace(arg.Email))
	if name == "" || email == "" || arg.Password == "" {
		return Session{}, ErrInvalidInput
	}

	// 重複の事前チェック。同時登録のすれ違いはCreateUserのUNIQUE制約で拾う。
	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return Session{}, ErrAlreadyExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}

	passwordHash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return Session{}, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	user := store.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         store.RoleUser,
	}
	if err := s.queries.CreateUser(ctx, store.CreateUserParams{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return Session{}, ErrAlreadyExists
		}
		return Session{}, fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return Session{}, fmt.Errorf("トークンの発行に失敗: %w", err)
	}

	return Session{User: user, Token: token}, nil
}

// Login はメールアドレスとパスワードで認証し、トークンを発行する。
// メールアドレス未登録とパスワード不一致はどちらもErrInvalidCredentialsに
// なり、レスポンスからは区別できない。
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return Session{}, fmt.Errorf("トークンの発行に失敗: %w", err)
	}

	return Session{User: user, Token: token}, nil
}

// Authenticate はBearerトークンを検証し、認証済みユーザーを解決する。
// 署名と有効期限の検証後、ユーザーがまだ存在することをストアで確認し、
// トークンに埋め込まれたロールではなくストアの最新のロールを返す。
// トークン発行後に削除されたアカウントはここで拒否される。
func (s *Service) Authenticate(ctx context.Context, token string) (middleware.Principal, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return middleware.Principal{}, err
	}

	user, err := s.queries.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return middleware.Principal{}, ErrPrincipalNotFound
	}
	if err != nil {
		return middleware.Principal{}, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}

	return middleware.Principal{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}
