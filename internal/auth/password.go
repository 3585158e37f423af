package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword は入力パスワードを設定済みのソルト付きハッシュと照合します。
// 対応形式は bcrypt（"$2" で始まる）と "sha256:<salt>:<hexdigest>" の2種類です。
// 比較時間は最初に異なるバイトの位置に依存しません。ハッシュが空または
// 不正な形式の場合は常に false を返し、決してエラーにはなりません。
func VerifyPassword(storedHash, presented string) bool {
	if storedHash == "" {
		return false
	}

	if strings.HasPrefix(storedHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(presented)) == nil
	}

	parts := strings.SplitN(storedHash, ":", 3)
	if len(parts) != 3 || parts[0] != "sha256" {
		return false
	}
	salt, digest := parts[1], parts[2]
	if salt == "" || digest == "" {
		return false
	}

	sum := sha256.Sum256([]byte(salt + presented))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

// HashPassword は設定用のソルト付き sha256 ハッシュを生成します。
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return "sha256:" + salt + ":" + hex.EncodeToString(sum[:])
}
