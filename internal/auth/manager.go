// Package auth は単一ユーザーサーバーの認証・セッション確立機能を提供します。
package auth

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/note-forge/internal/config"
)

const sessionKeyUser = "auth_user"

var (
	loginWindow      = 15 * time.Minute
	lockDuration     = 10 * time.Minute
	maxLoginAttempts = 5
)

// AnonymousUser はログイン手段が未構成の場合に割り当てるフォールバックIDです。
const AnonymousUser = "anonymous"

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Manager は認証処理と、リクエスト間で共有する状態をまとめた構造体です。
// ワンタイムトークンの消費以外に可変状態を持たず、並行呼び出しに対して安全です。
type Manager struct {
	cfg    *config.Config
	logger *log.Logger

	// ワンタイムトークンは一度だけ成功できる。消費はCASで行う。
	oneTime atomic.Pointer[string]

	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		attempts: make(map[string]*attemptState),
	}
	if cfg.OneTimeToken != "" {
		token := cfg.OneTimeToken
		m.oneTime.Store(&token)
	}
	return m
}

// newSessionID はログイン成功ごとに新しいセッションIDを発行します。
// 安定したユーザーIDではなく、ログインイベントごとの使い捨てマーカーです。
func newSessionID() string {
	return uuid.NewString()
}

func (m *Manager) checkLock(ip string) time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[ip]
	if !ok {
		return 0
	}
	now := time.Now()
	if now.After(state.lockedUntil) {
		return 0
	}
	return time.Until(state.lockedUntil)
}

func (m *Manager) recordFailure(ip string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now()
	state, ok := m.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > loginWindow {
		state = &attemptState{firstAttempt: now}
		m.attempts[ip] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (m *Manager) resetAttempts(ip string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, ip)
}
