package auth

import (
	"context"
	"time"

	"github.com/alexedwards/scs/v2"
)

const (
	sessionKeyUserID       = "userId"
	sessionKeyToken        = "sessionToken"
	sessionKeyLastActivity = "last_activity"
)

// Session is the per-client state the identity operations read and write.
type Session interface {
	UserID() (uint, bool)
	Token() string
	LastActivity() time.Time
	// Establish binds the session to userID. Implementations rotate any
	// client-visible session identifier.
	Establish(ctx context.Context, userID uint, token string, now time.Time) error
	Touch(now time.Time)
	Clear(ctx context.Context) error
}

// SCSSession is a Session backed by the scs session loaded into ctx.
type SCSSession struct {
	sm  *scs.SessionManager
	ctx context.Context
}

// NewSCSSession wraps the session that sm.LoadAndSave put into ctx.
func NewSCSSession(sm *scs.SessionManager, ctx context.Context) *SCSSession {
	return &SCSSession{sm: sm, ctx: ctx}
}

func (s *SCSSession) UserID() (uint, bool) {
	if !s.sm.Exists(s.ctx, sessionKeyUserID) {
		return 0, false
	}
	id := s.sm.GetInt64(s.ctx, sessionKeyUserID)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *SCSSession) Token() string {
	return s.sm.GetString(s.ctx, sessionKeyToken)
}

func (s *SCSSession) LastActivity() time.Time {
	n := s.sm.GetInt64(s.ctx, sessionKeyLastActivity)
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *SCSSession) Establish(ctx context.Context, userID uint, token string, now time.Time) error {
	if err := s.sm.RenewToken(s.ctx); err != nil {
		return err
	}
	s.sm.Put(s.ctx, sessionKeyUserID, int64(userID))
	s.sm.Put(s.ctx, sessionKeyToken, token)
	s.sm.Put(s.ctx, sessionKeyLastActivity, now.UnixNano())
	return nil
}

func (s *SCSSession) Touch(now time.Time) {
	s.sm.Put(s.ctx, sessionKeyLastActivity, now.UnixNano())
}

func (s *SCSSession) Clear(ctx context.Context) error {
	return s.sm.Destroy(s.ctx)
}

// BearerSession is a read-only Session built from a verified bearer token.
// It never persists anything: Establish fails and Touch/Clear are no-ops.
// Revoking the token is up to Identity.Logout.
type BearerSession struct {
	claims TokenClaims
	raw    string
}

func NewBearerSession(raw string, claims TokenClaims) *BearerSession {
	return &BearerSession{claims: claims, raw: raw}
}

func (b *BearerSession) UserID() (uint, bool) { return b.claims.UserID, b.claims.UserID != 0 }

func (b *BearerSession) Token() string { return b.raw }

// TokenID is the jti that must still be live for the session to count.
func (b *BearerSession) TokenID() string { return b.claims.ID }

func (b *BearerSession) LastActivity() time.Time { return b.claims.IssuedAt }

func (b *BearerSession) Establish(context.Context, uint, string, time.Time) error {
	return ErrReadOnlySession
}

func (b *BearerSession) Touch(time.Time) {}

func (b *BearerSession) Clear(context.Context) error { return nil }
