package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/guestbook/internal/auth"
	"github.com/charlesng35/guestbook/pkg/logger"
	"github.com/charlesng35/guestbook/pkg/response"
)

const (
	// CtxSessionIDKey is the gin context key holding the visitor session id.
	CtxSessionIDKey = "session_id"

	// DefaultSessionCookie names the cookie carrying the signed session.
	DefaultSessionCookie = "guestbook_session"
)

// SessionIssuer issues and validates signed session cookie values.
type SessionIssuer interface {
	Issue() (*auth.Session, error)
	Validate(value string) (string, error)
}

// Session makes sure every request belongs to a visitor session. A missing,
// forged or expired cookie is replaced by a freshly issued session.
func Session(issuer SessionIssuer, cookieName string) gin.HandlerFunc {
	if strings.TrimSpace(cookieName) == "" {
		cookieName = DefaultSessionCookie
	}

	return func(c *gin.Context) {
		if value, err := c.Cookie(cookieName); err == nil {
			if sid, err := issuer.Validate(value); err == nil {
				c.Set(CtxSessionIDKey, sid)
				c.Next()
				return
			}
		}

		session, err := issuer.Issue()
		if err != nil {
			logger.WithModule("session").Error("issue session", zap.Error(err))
			response.Error(c, err)
			c.Abort()
			return
		}

				http.SetCookie(c.Writer, &http.Cookie{
			Name:     cookieName,
			Value:    session.Value,
			Path:     "/",
			Expires:  session.ExpiresAt,
			MaxAge:   int(session.ExpiresAt.Sub(session.IssuedAt).Seconds()),
			Secure:   isSecureRequest(c.Request),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		c.Set(CtxSessionIDKey, session.ID)
		c.Next()
	}
}

// SessionID returns the visitor session id stored by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(CtxSessionIDKey)
}

func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(scheme, "https")
}
