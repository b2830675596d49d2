package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher は bcrypt によるパスワードハッシュの生成と検証を行います。
// コストは起動時に決まり、以降変更されません。
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher は指定コストの Hasher を作成します。範囲外のコストはエラーです。
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("postboard-dummy-password"), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Hash は呼び出しごとに新しいソルトでダイジェストを生成します。
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify は平文がダイジェストと一致するかを返します。
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyMissing は存在しないアカウントに対しても同じ計算量を費やします。常に false です。
func (h *Hasher) VerifyMissing(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
	return false
}
