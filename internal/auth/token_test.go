package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = req
	return ctx
}

func TestExtractTokenQuery(t *testing.T) {
	ctx := testContext(httptest.NewRequest(http.MethodGet, "/?token=abc123", nil))
	if got := ExtractToken(ctx); got != "abc123" {
		t.Fatalf("ExtractToken = %q, want %q", got, "abc123")
	}
}

func TestExtractTokenForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("token=abc123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx := testContext(req)
	if got := ExtractToken(ctx); got != "abc123" {
		t.Fatalf("ExtractToken = %q, want %q", got, "abc123")
	}
}

func TestExtractTokenAuthorizationHeader(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"token abc123", "abc123"},
		{"Token abc123", "abc123"},
		{"TOKEN   abc123", "abc123"},
		{"Bearer abc123", ""},
		{"", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		ctx := testContext(req)
		if got := ExtractToken(ctx); got != tc.want {
			t.Fatalf("ExtractToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestExtractTokenQueryBeforeHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set("Authorization", "token from-header")
	ctx := testContext(req)
	if got := ExtractToken(ctx); got != "from-query" {
		t.Fatalf("ExtractToken = %q, want query parameter to win", got)
	}
}

func TestConsumeOneTimeTokenOnce(t *testing.T) {
	cfg := newTestConfig()
	cfg.Token = "static-token"
	cfg.OneTimeToken = "one-time"
	_, manager := newTestRouter(cfg)

	if manager.consumeOneTimeToken("wrong") {
		t.Fatal("expected non-matching token to fail")
	}
	if !manager.consumeOneTimeToken("one-time") {
		t.Fatal("expected first matching presentation to succeed")
	}
	if manager.consumeOneTimeToken("one-time") {
		t.Fatal("expected consumed token to fail")
	}
}

func TestConsumeOneTimeTokenConcurrent(t *testing.T) {
	cfg := newTestConfig()
	cfg.Token = "static-token"
	cfg.OneTimeToken = "one-time"
	_, manager := newTestRouter(cfg)

	const workers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if manager.consumeOneTimeToken("one-time") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("one-time token succeeded %d times, want exactly 1", got)
	}
}
