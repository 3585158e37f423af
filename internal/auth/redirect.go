package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// TargetClass はリダイレクト先の分類結果です。
type TargetClass int

const (
	// TargetUnsafe は許可できないリダイレクト先です。
	TargetUnsafe TargetClass = iota
	// TargetRelativePath はベースパス配下の相対パスです。
	TargetRelativePath
	// TargetCrossOrigin はオリジン許可リストを通過した完全URLです。
	TargetCrossOrigin
)

// ClassifyRedirect はログイン後のリダイレクト先候補を検証します。
// currentOrigin は現在のリクエストの scheme://host です。
//
// ブラウザの中にはエスケープされていないバックスラッシュを / として
// 解釈するものがあり、`\\` が `//`（プロトコル相対URL）として振る舞って
// 外部サイトへ向かう恐れがあるため、他のどの解析よりも先に `\` を
// %5C に置換します。
func (m *Manager) ClassifyRedirect(candidate, currentOrigin string) TargetClass {
	candidate = strings.ReplaceAll(candidate, `\`, "%5C")

	parsed, err := url.Parse(candidate)
	if err != nil {
		return TargetUnsafe
	}

	pathOnly := *parsed
	pathOnly.Scheme = ""
	pathOnly.Opaque = ""
	pathOnly.User = nil
	pathOnly.Host = ""

	if candidate == pathOnly.String() {
		// スキームもホストも持たない場合は、ベースパス配下の絶対パスのみ許可する。
		if strings.HasPrefix(parsed.Path+"/", m.cfg.BasePath) {
			return TargetRelativePath
		}
		return TargetUnsafe
	}

	origin := strings.ToLower(parsed.Scheme + "://" + parsed.Host)
	if m.originAllowed(origin, currentOrigin) {
		return TargetCrossOrigin
	}
	return TargetUnsafe
}

// RedirectSafe は candidate が安全と分類された場合のみそこへリダイレクトし、
// そうでなければベースパスへ戻します。拒否したURLはセキュリティ監査の
// ために警告ログへ残しますが、クライアントには一切伝えません。
func (m *Manager) RedirectSafe(c *gin.Context, candidate string) {
	target := m.cfg.BasePath
	if candidate != "" {
		if m.ClassifyRedirect(candidate, requestOrigin(c)) != TargetUnsafe {
			target = candidate
		} else {
			m.logger.Printf("WARNING: not allowing login redirect to %q", candidate)
		}
	}
	c.Redirect(http.StatusFound, target)
}
