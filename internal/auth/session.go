package auth

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IssueLoginCookie は署名付きセッションCookieを発行します。
// HttpOnly は常に付与し、Secure は接続がHTTPSの場合、または上流でTLSを
// 終端している構成（ForceSecureCookie）の場合に付与します。
func (m *Manager) IssueLoginCookie(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Options(sessions.Options{
		Path:     m.cfg.BasePath,
		HttpOnly: true,
		Secure:   m.secureCookie(c),
	})
	session.Set(sessionKeyUser, userID)
	return session.Save()
}

// ReadLoginCookie はセッションCookieを検証し、格納されたセッションIDを返します。
// Cookieが無い場合や署名が不正な場合は ok=false を返します（fail closed）。
// 同一リクエスト内で何度呼んでも結果は変わりません。
func (m *Manager) ReadLoginCookie(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionKeyUser).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// ClearLoginCookie はセッションCookieを削除します。
func (m *Manager) ClearLoginCookie(c *gin.Context) {
	session := sessions.Default(c)
	session.Options(sessions.Options{
		Path:   m.cfg.BasePath,
		MaxAge: -1,
	})
	session.Clear()
	if err := session.Save(); err != nil {
		m.logger.Printf("failed to clear login cookie: %v", err)
	}
}

// secureCookie は Secure 属性を付けるべきかを判定します。直接のソケットだけでは
// なく、リバースプロキシ配下でのTLS終端も考慮します。
func (m *Manager) secureCookie(c *gin.Context) bool {
	if m.cfg.ForceSecureCookie {
		return true
	}
	return requestScheme(c) == "https"
}

// requestScheme はリクエストのスキームを導出します。プロキシ経由の場合は
// X-Forwarded-Proto を信頼します。
func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

// requestOrigin は現在のリクエストのオリジン（scheme://host）を返します。
func requestOrigin(c *gin.Context) string {
	return strings.ToLower(requestScheme(c) + "://" + c.Request.Host)
}
