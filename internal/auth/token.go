package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はトークンの既定の有効期間（7日）。
const DefaultTokenTTL = 7 * 24 * time.Hour

// tokenIssuerName はJWTのiss（発行者）クレームに設定する値。
const tokenIssuerName = "enroll-api"

// Claims はJWTトークンのクレーム（ペイロード）を表す。
// ロールは発行時点の値であり、検証時にはストアの最新値で上書きされる。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// Role は発行時点のユーザーのロール。
	Role string `json:"role"`
}

// TokenIssuer は署名付きBearerトークンの発行と解析を行う。
// 署名鍵は構築時に一度だけ受け取り、以後変更しない。
type TokenIssuer struct {
	// secret はHMAC署名用の秘密鍵。
	secret []byte
	// ttl はトークンの有効期間。
	ttl time.Duration
}

// NewTokenIssuer は新しいTokenIssuerを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue はユーザーIDとロールから署名付きトークンを生成する。
// ペイロードのいかなる改ざんも署名検証で検出される。
func (i *TokenIssuer) Issue(userID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuerName,
		},
		UserID: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Parse はトークンの署名と有効期限を検証し、クレームを返す。
// 期限切れはErrTokenExpired、その他の検証失敗はErrTokenInvalidに分類する。
func (i *TokenIssuer) Parse(raw string) (Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return Claims{}, ErrTokenInvalid
	}
	return *claims, nil
}
