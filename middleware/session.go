package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alexcata03/Shop-Online/auth"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewSessionManager configures the cookie the session store is keyed by.
func NewSessionManager(store scs.Store, secure bool) *scs.SessionManager {
	sm := scs.New()
	if store != nil {
		sm.Store = store
	}
	sm.IdleTimeout = auth.SessionIdleTimeout
	sm.Lifetime = 30 * 24 * time.Hour
	sm.Cookie.Name = "session_id"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = true
	return sm
}

// Sessions loads the scs session for the request and commits it before the
// response headers go out. It does what scs's LoadAndSave does, but keeps
// gin's writer so handlers can still hijack the connection.
func Sessions(sm *scs.SessionManager, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}
		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header("Vary", "Cookie")

		w := &sessionWriter{ResponseWriter: c.Writer, c: c, sm: sm, log: log}
		c.Writer = w
		c.Next()
		w.commit()
	}
}

type sessionWriter struct {
	gin.ResponseWriter
	c         *gin.Context
	sm        *scs.SessionManager
	log       logrus.FieldLogger
	committed bool
	// set once a failed commit has written its own response
	discard bool
}

// commit saves the session before the first byte goes out. It reports
// whether the caller may still write.
func (w *sessionWriter) commit() bool {
	if w.committed || w.ResponseWriter.Written() {
		return !w.discard
	}
	w.committed = true

	ctx := w.c.Request.Context()
	switch w.sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(ctx)
		if err != nil {
			w.fail(err)
			return false
		}
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
	return true
}

// fail replaces the handler's response with a 500. Whatever the handler
// writes afterwards is dropped.
func (w *sessionWriter) fail(err error) {
	w.log.WithError(err).Error("commit session")
	render.Error(w.c, fmt.Errorf("commit session: %w", err))
	w.discard = true
}

func (w *sessionWriter) WriteHeader(code int) {
	if w.commit() {
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *sessionWriter) WriteHeaderNow() {
	if w.commit() {
		w.ResponseWriter.WriteHeaderNow()
	}
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.commit() {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	if !w.commit() {
		return len(s), nil
	}
	return w.ResponseWriter.WriteString(s)
}
