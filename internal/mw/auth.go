package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"device-lending-backend/internal/session"
)

// SessionCookie is the cookie carrying the identity provider's token.
const SessionCookie = "lend_session"

// Context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxIsStaff   = "isStaff"
)

// token extracts the session token from the cookie or a bearer header.
func token(c *gin.Context) string {
	if ck, err := c.Request.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Auth resolves the request's session and puts the identity in the gin
// context. The identity provider is trusted; no further verification here.
func Auth(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := token(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		sess, err := sessions.Get(c.Request.Context(), tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}
		c.Set(CtxUserID, sess.UserID)
		c.Set(CtxUserEmail, sess.Email)
		c.Set(CtxIsStaff, sess.Staff())
		c.Next()
	}
}

// StaffOnly rejects requests whose session lacks the staff claim. It must
// run after Auth.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsStaff) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
