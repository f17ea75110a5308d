package database

import (
	"context"
	"errors"
	"time"

	"github.com/alexcata03/Shop-Online/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStore persists scs sessions in the sessions table so logins survive
// restarts and are shared between instances. It implements scs.CtxStore.
type SessionStore struct {
	db   *gorm.DB
	log  logrus.FieldLogger
	stop chan struct{}
	done chan struct{}
}

// NewSessionStore returns a store; when cleanupInterval > 0 a background
// goroutine deletes expired rows until StopCleanup is called.
func NewSessionStore(db *gorm.DB, log logrus.FieldLogger, cleanupInterval time.Duration) *SessionStore {
	s := &SessionStore{db: db, log: log}
	if cleanupInterval > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.startCleanup(cleanupInterval)
	}
	return s
}

func (s *SessionStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *SessionStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	var row models.Session
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !time.Now().Before(row.Expiry) {
		return nil, false, nil
	}
	return row.Data, true, nil
}

func (s *SessionStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *SessionStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	row := models.Session{Token: token, Data: b, Expiry: expiry.UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expiry"}),
	}).Create(&row).Error
}

func (s *SessionStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *SessionStore) DeleteCtx(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteExpired removes every session whose expiry is before now.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expiry < ?", now.UTC()).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (s *SessionStore) startCleanup(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := s.DeleteExpired(context.Background(), time.Now())
			if err != nil {
				s.log.WithError(err).Warn("session cleanup failed")
				continue
			}
			if n > 0 {
				s.log.WithField("removed", n).Debug("expired sessions removed")
			}
		case <-s.stop:
			return
		}
	}
}

// StopCleanup terminates the cleanup goroutine, if one was started.
func (s *SessionStore) StopCleanup() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}
