package auth

import (
	"html/template"
	"io"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/note-forge/internal/config"
)

const testLoginTemplate = `<form action="{{.BasePath}}login" method="post">` +
	`{{if .Message}}<p>{{.Message}}</p>{{end}}` +
	`<input type="hidden" name="next" value="{{.Next}}"></form>`

func newTestConfig() *config.Config {
	return &config.Config{
		CookieName:    "nf_session",
		SessionSecret: "test-secret",
		BasePath:      "/",
		MaxFileSize:   1 << 20,
	}
}

// newTestRouter はログインフロー一式と保護対象のダミーAPIを配線したルーターを返します。
func newTestRouter(cfg *config.Config) (*gin.Engine, *Manager) {
	gin.SetMode(gin.TestMode)

	manager := NewManager(cfg, log.New(io.Discard, "", 0))

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("login.html").Parse(testLoginTemplate)))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	router.Use(sessions.Sessions(cfg.CookieName, store))
	router.Use(manager.ResolveIdentity())

	router.GET("/login", manager.LoginGET)
	router.POST("/login", manager.LoginPOST)
	router.GET("/logout", manager.Logout)

	api := router.Group("/api", manager.RequireValidOrigin(), manager.RequireLogin())
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentOutcome(c).UserID})
	})

	return router, manager
}

func sessionCookies(rec *httptest.ResponseRecorder, name string) []*http.Cookie {
	var found []*http.Cookie
	res := rec.Result()
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			found = append(found, ck)
		}
	}
	return found
}
