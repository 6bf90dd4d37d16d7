package usecase

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// 推測できないランダムトークン（cart_session、パスワード再設定）
func newRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// 平文 + DB保存用hash
func newRandomTokenAndHash() (plain string, hash string, err error) {
	plain, err = newRandomToken()
	if err != nil {
		return "", "", err
	}
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
