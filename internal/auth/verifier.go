package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier 校验用户名与密码
type Verifier interface {
	Verify(username, password string) bool
}

// StaticVerifier 基于固定账号表的校验器
// 密码以 "$2" 开头时按 bcrypt 哈希比较，否则按明文比较
type StaticVerifier struct {
	users map[string]string
}

// NewStaticVerifier 创建校验器（复制账号表）
func NewStaticVerifier(users map[string]string) *StaticVerifier {
	cp := make(map[string]string, len(users))
	for k, v := range users {
		cp[k] = v
	}
	return &StaticVerifier{users: cp}
}

// Verify 用户名区分大小写
func (v *StaticVerifier) Verify(username, password string) bool {
	stored, ok := v.users[username]
	if !ok || password == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// VerifierFunc 函数适配器
type VerifierFunc func(username, password string) bool

func (f VerifierFunc) Verify(username, password string) bool {
	return f(username, password)
}
