package auth

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextOutcomeKey は、解決済みの認証結果をハンドラー間で共有するためのキーです。
const ContextOutcomeKey = "auth.outcome"

// OutcomeKind は識別の種別を表します。
type OutcomeKind int

const (
	// KindAnonymous は資格情報が提示されなかったことを表します。
	// ログイン手段が未構成の場合のみ、フォールバックIDを伴います。
	KindAnonymous OutcomeKind = iota
	// KindCookie はセッションCookieによる認証です。
	KindCookie
	// KindToken はベアラートークンによる認証です。
	KindToken
)

// Outcome はリクエスト1件の識別解決の結果です。
type Outcome struct {
	Kind   OutcomeKind
	UserID string
}

// Authenticated はこのリクエストにアクセスを許してよいかを返します。
func (o Outcome) Authenticated() bool {
	return o.UserID != ""
}

// TokenAuthenticated はトークン認証されたリクエストかを返します。
func (o Outcome) TokenAuthenticated() bool {
	return o.Kind == KindToken
}

// RequiresOriginCheck はオリジン検証が必要かを返します。トークン認証された
// リクエストはスクリプト駆動のAPIクライアントとみなし、検証を免除します。
// Cookie認証や匿名のブラウザリクエストは常に検証対象です。
func (o Outcome) RequiresOriginCheck() bool {
	return !o.TokenAuthenticated()
}

// CurrentOutcome はミドルウェアが解決した認証結果を取り出します。
func CurrentOutcome(c *gin.Context) Outcome {
	if v, ok := c.Get(ContextOutcomeKey); ok {
		if outcome, ok := v.(Outcome); ok {
			return outcome
		}
	}
	return Outcome{}
}

// resolve はリクエストの識別を一度だけ解決します。トークン認証を先に試し、
// 成功時はその場で新しいセッションCookieを発行します。だめならCookieに
// フォールバックします。どちらも無く、かつログイン手段が未構成なら
// フォールバックの匿名IDを割り当てます（この構成自体は起動時に警告済み）。
func (m *Manager) resolve(c *gin.Context) Outcome {
	if userID, ok := m.authenticateToken(c); ok {
		if err := m.IssueLoginCookie(c, userID); err != nil {
			m.logger.Printf("failed to set login cookie: %v", err)
		}
		return Outcome{Kind: KindToken, UserID: userID}
	}

	if userID, ok := m.ReadLoginCookie(c); ok {
		return Outcome{Kind: KindCookie, UserID: userID}
	}

	// 改ざん・期限切れCookieの署名警告を繰り返さないよう、無効なCookieは
	// ここで消しておく。
	if _, err := c.Cookie(m.cfg.CookieName); err == nil {
		m.ClearLoginCookie(c)
	}

	if !m.cfg.LoginAvailable() {
		return Outcome{Kind: KindAnonymous, UserID: AnonymousUser}
	}
	return Outcome{Kind: KindAnonymous}
}

// originAllowed はオリジン文字列（小文字化済み）が許可リストを通過するかを返します。
// リダイレクト検証とクロスオリジン検証で同じ規則を共有します。
func (m *Manager) originAllowed(origin, currentOrigin string) bool {
	if origin == strings.ToLower(currentOrigin) {
		return true
	}
	if m.cfg.AllowOrigin != "" && m.cfg.AllowOrigin == origin {
		return true
	}
	if m.cfg.AllowOriginPat != nil && m.cfg.AllowOriginPat.MatchString(origin) {
		return true
	}
	return false
}

// originFromHeader は Origin または Referer ヘッダーからオリジンを導出します。
func originFromHeader(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" {
		return strings.ToLower(origin)
	}
	referer := c.GetHeader("Referer")
	if referer == "" {
		return ""
	}
	parsed, err := url.Parse(referer)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return strings.ToLower(parsed.Scheme + "://" + parsed.Host)
}
