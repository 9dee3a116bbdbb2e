package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はbcryptによるパスワードのハッシュ化と検証を行う。
// 平文・ハッシュ値のいずれもログには出力しない。
type Hasher struct {
	// cost はbcryptのコストパラメータ。
	cost int
}

// NewHasher は新しいHasherを生成する。
// costが有効範囲外の場合はbcrypt.DefaultCost（10）を使用する。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文パスワードからソルト付きハッシュを生成する。
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードがハッシュと一致するかを検証する。
// ハッシュが壊れている場合を含め、あらゆる検証エラーをfalseとして扱う。
// 呼び出し側はエラーの種類を区別せず「検証失敗」とみなせばよい。
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
