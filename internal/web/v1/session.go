package v1

import (
	"errors"
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"

	"github.com/duynhne/bookreview-service/internal/core/domain"
	"github.com/duynhne/bookreview-service/internal/core/token"
	logicv1 "github.com/duynhne/bookreview-service/internal/logic/v1"
)

const (
	sessionKey = "session"
	claimsKey  = "claims"
)

// LoadSession resolves the session cookie and stores the live session, if
// any, in the gin context. It never rejects a request.
func (h *Handler) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(h.cookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		sess, err := h.auth.LoadSession(c.Request.Context(), id)
		if err != nil {
			pkgzerolog.FromContext(c.Request.Context()).Error().Err(err).Msg("Session lookup failed")
		}
		if sess != nil {
			c.Set(sessionKey, sess)
		}
		c.Next()
	}
}

// RequireToken enforces the strong policy: a session must be present and its
// access token must verify on this request.
func (h *Handler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := h.auth.AuthorizeProtected(sessionFrom(c))
		if err != nil {
			pkgzerolog.FromContext(c.Request.Context()).Warn().Err(err).Msg("Token check failed")

			msg := "User not authenticated"
			switch {
			case errors.Is(err, logicv1.ErrSessionMissing):
				msg = "User not logged in"
			case errors.Is(err, logicv1.ErrTokenMissing):
				msg = "Access token missing"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": msg})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, id string) {
	maxAge := int(h.sessionTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, id, maxAge, "/", "", c.Request.TLS != nil, true)
}

func sessionFrom(c *gin.Context) *domain.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*domain.Session)
	return sess
}

func claimsFrom(c *gin.Context) *token.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*token.Claims)
	return claims
}
