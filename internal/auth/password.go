package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// パスワードの長さ制約。bcryptは72バイトを超える入力を扱えない。
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// dummyHash はユーザーが存在しない場合にも同程度の比較時間をかけるためのハッシュ。
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("complementai-dummy-password"), bcrypt.DefaultCost)

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword はハッシュとパスワードが一致するかを返す。
// hashが空（外部IdPのみのユーザー）の場合もダミー比較を行ったうえでfalseを返す。
func CheckPassword(hash, password string) (bool, error) {
	target := []byte(hash)
	if hash == "" {
		target = dummyHash
	}
	err := bcrypt.CompareHashAndPassword(target, []byte(password))
	if err == nil {
		return hash != "", nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", err)
}
