package auth

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// LoginGET は GET /login のハンドラーです。認証済みならリダイレクトし、
// 未認証ならログインフォームを表示します。
func (m *Manager) LoginGET(c *gin.Context) {
	if CurrentOutcome(c).Authenticated() {
		m.RedirectSafe(c, nextTarget(c))
		return
	}
	m.renderLogin(c, http.StatusOK, "")
}

// LoginPOST は POST /login のハンドラーです。パスワード照合、静的トークンの
// パスワード欄入力による照合の順に試みます。ログイン手段が未構成の場合は
// 資格情報の検査を行わずにリダイレクトします。
func (m *Manager) LoginPOST(c *gin.Context) {
	if m.cfg.LoginAvailable() {
		ip := c.ClientIP()
		if retryAfter := m.checkLock(ip); retryAfter > 0 {
			c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "TOO_MANY_ATTEMPTS",
				"message": "too many failed login attempts, try again later",
			})
			return
		}

		typed := c.PostForm("password")
		switch {
		case VerifyPassword(m.cfg.PasswordHash, typed):
		case m.cfg.Token != "" && subtle.ConstantTimeCompare([]byte(m.cfg.Token), []byte(typed)) == 1:
		default:
			m.recordFailure(ip)
			// どの資格情報が違ったのかは明かさない。
			m.renderLogin(c, http.StatusUnauthorized, "Invalid password")
			return
		}
		m.resetAttempts(ip)

		if err := m.IssueLoginCookie(c, newSessionID()); err != nil {
			m.logger.Printf("failed to set login cookie: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "SESSION_SAVE_FAILED",
				"message": "failed to establish a session",
			})
			return
		}
	}

	m.RedirectSafe(c, nextTarget(c))
}

// Logout は GET /logout のハンドラーです。セッションCookieを破棄して
// ログインフォームに戻します。
func (m *Manager) Logout(c *gin.Context) {
	m.ClearLoginCookie(c)
	m.renderLogin(c, http.StatusOK, "")
}

// renderLogin はログインフォームを描画します。next の値はテンプレート側で
// エスケープされます。
func (m *Manager) renderLogin(c *gin.Context, status int, message string) {
	c.HTML(status, "login.html", gin.H{
		"BasePath": m.cfg.BasePath,
		"Next":     nextTarget(c),
		"Message":  message,
	})
}

// nextTarget はクエリまたはフォームの next パラメータを返します。
func nextTarget(c *gin.Context) string {
	if next := c.Query("next"); next != "" {
		return next
	}
	return c.PostForm("next")
}
