// Package model はドメインモデルを定義する。
package model

import "time"

// Theme はユーザーのUIテーマ設定を表す。
type Theme string

const (
	// ThemeLight はライトテーマ。
	ThemeLight Theme = "light"
	// ThemeDark はダークテーマ。
	ThemeDark Theme = "dark"
	// ThemeSystem はOS設定に従うテーマ（デフォルト）。
	ThemeSystem Theme = "system"
)

// ParseTheme は文字列をThemeに変換する。未知の値の場合はfalseを返す。
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark, ThemeSystem:
		return Theme(s), true
	}
	return "", false
}

// User はサービス利用ユーザーを表す。
// PasswordHashは外部IdPのみで登録したユーザーでは空になる。
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Theme        Theme
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
type Identity struct {
	ID             int64
	UserID         int64
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}
