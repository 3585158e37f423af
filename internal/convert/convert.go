// Package convert はドキュメント変換まわりの補助APIを提供します。
// エクスポート形式の一覧と、アップロードされたドキュメントの種別判定です。
// このパッケージは認証の前提（RequireLogin の後段に配置されること）以外に
// セキュリティ上の仕事を持ちません。
package convert

import (
	"fmt"

	"github.com/yourusername/note-forge/internal/config"
)

// Error はAPIレスポンスに変換可能なエラーです。
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, err: err}
}

// Service は変換補助APIの設定を保持します。
type Service struct {
	maxFileSize int64
}

// NewService は Service を作成します。
func NewService(cfg *config.Config) *Service {
	return &Service{maxFileSize: cfg.MaxFileSize}
}
