package auth

import (
	"crypto/subtle"
	"regexp"

	"github.com/gin-gonic/gin"
)

// Authorization ヘッダーの "token <value>" 形式（プレフィックスは大文字小文字を区別しない）。
var authHeaderPat = regexp.MustCompile(`(?i)^token\s+(.+)$`)

// ExtractToken はリクエストからベアラートークンを取り出します。
//
// 優先順位:
//   - クエリ/フォームパラメータ token=<token>
//   - ヘッダー Authorization: token <token>
//
// どちらにも無ければ空文字を返します。
func ExtractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if token := c.PostForm("token"); token != "" {
		return token
	}
	if match := authHeaderPat.FindStringSubmatch(c.GetHeader("Authorization")); match != nil {
		return match[1]
	}
	return ""
}

// authenticateToken はトークンによる認証を試みます。成功した場合は
// 新しく発行したセッションIDを返します。静的トークンが未設定なら
// トークン認証自体が無効です。不一致はエラーではなく単なる失敗です。
func (m *Manager) authenticateToken(c *gin.Context) (string, bool) {
	if m.cfg.Token == "" {
		return "", false
	}

	presented := ExtractToken(c)
	if presented == "" {
		return "", false
	}

	if subtle.ConstantTimeCompare([]byte(m.cfg.Token), []byte(presented)) == 1 {
		m.logger.Printf("accepting token-authenticated connection from %s", c.ClientIP())
		return newSessionID(), true
	}

	if m.consumeOneTimeToken(presented) {
		m.logger.Printf("accepting one-time-token-authenticated connection from %s", c.ClientIP())
		return newSessionID(), true
	}

	return "", false
}

// consumeOneTimeToken はワンタイムトークンの照合と消費をアトミックに行います。
// 同じトークンを同時に提示した複数のリクエストのうち、CASに勝った
// ちょうど1つだけが成功します。消費済みは「トークン不一致」と同じ扱いです。
func (m *Manager) consumeOneTimeToken(presented string) bool {
	current := m.oneTime.Load()
	if current == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*current), []byte(presented)) != 1 {
		return false
	}
	return m.oneTime.CompareAndSwap(current, nil)
}
