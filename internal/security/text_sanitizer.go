// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は利用者が入力する自由記述テキストからHTMLを取り除く。
// プロジェクト名、ドメイン、バックログの説明、スプリントゴール、パーキングロットの内容に適用する。
type TextSanitizer interface {
	// Clean はすべてのタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	Clean(s string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyを使うTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxSanitizeRounds はエンティティの多重エンコードを剥がす最大回数。
const maxSanitizeRounds = 5

// Clean はタグを除去したプレーンテキストを返す。
// StrictPolicyは&や引用符をエンティティに変換するため元の文字へ戻すが、
// 戻した結果に&lt;b&gt;由来のタグが現れうるので、出力が変わらなくなるまで繰り返す。
// 上限回数で収束しない場合は残りのエンティティをすべて戻してタグを除去し、<>&を取り除く。
// 出力側はJSONとしてのみ返し、HTMLとして埋め込まない。
func (s *textSanitizer) Clean(in string) string {
	if in == "" {
		return ""
	}
	out := in
	for range maxSanitizeRounds {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	for {
		u := html.UnescapeString(out)
		if u == out {
			break
		}
		out = u
	}
	out = html.UnescapeString(s.policy.Sanitize(out))
	return strings.TrimSpace(markupChars.Replace(out))
}

var markupChars = strings.NewReplacer("<", "", ">", "", "&", "")
