package auth

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"proposaldesk/internal/apperr"
)

const sessionKey = "auth.session"

// LoginPath 未登录时的跳转地址
const LoginPath = "/login"

// Gate 会话门禁
type Gate struct {
	sessions   *SessionStore
	verifier   Verifier
	cookieName string
}

// NewGate 创建会话门禁
func NewGate(sessions *SessionStore, verifier Verifier, cookieName string) *Gate {
	return &Gate{
		sessions:   sessions,
		verifier:   verifier,
		cookieName: cookieName,
	}
}

// Sessions 会话表
func (g *Gate) Sessions() *SessionStore {
	return g.sessions
}

// Load 从 cookie 读取会话并放入请求上下文（不拦截）
func (g *Gate) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(g.cookieName); err == nil {
			if sess, ok := g.sessions.Get(id); ok {
				SetSession(c, sess)
			}
		}
		c.Next()
	}
}

// RequireLogin 未登录时 302 跳转到登录页
func (g *Gate) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Login 校验凭据并写入会话 cookie；失败时返回 apperr.ErrAuthFailure
func (g *Gate) Login(c *gin.Context, username, password string) (Session, error) {
	if !g.verifier.Verify(username, password) {
		return Session{}, fmt.Errorf("login %q: %w", username, apperr.ErrAuthFailure)
	}
	sess := g.sessions.Create(username)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.cookieName, sess.ID, 0, "/", "", false, true)
	SetSession(c, sess)
	return sess, nil
}

// Logout 删除会话并清除 cookie
func (g *Gate) Logout(c *gin.Context) {
	if sess, ok := SessionFrom(c); ok {
		g.sessions.Delete(sess.ID)
	}
	c.SetCookie(g.cookieName, "", -1, "/", "", false, true)
}

// SetSession 将会话放入请求上下文
func SetSession(c *gin.Context, sess Session) {
	c.Set(sessionKey, sess)
}

// SessionFrom 读取当前请求的会话
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}

// Username 当前登录用户名，未登录返回空字符串
func Username(c *gin.Context) string {
	sess, _ := SessionFrom(c)
	return sess.Username
}
