package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthenticated, "invalid username or password")
	ErrUnknownUser        = apperrors.New(apperrors.ErrUnauthenticated, "session refers to an unknown user")
	ErrSessionExpired     = apperrors.New(apperrors.ErrUnauthenticated, "session expired, please log in again")
	ErrTokenRevoked       = apperrors.New(apperrors.ErrUnauthenticated, "token is no longer valid, please log in again")
	ErrUsernameTaken      = apperrors.New(apperrors.ErrAlreadyExists, "username is already taken")
	ErrEmailTaken         = apperrors.New(apperrors.ErrAlreadyExists, "email is already registered")
	ErrReadOnlySession    = errors.New("bearer sessions cannot be established")
)

// Identity resolves and manages authenticated sessions.
type Identity struct {
	db        *gorm.DB
	passwords *PasswordHasher
	tokens    *TokenIssuer
	now       func() time.Time
}

func NewIdentity(db *gorm.DB, passwords *PasswordHasher, tokens *TokenIssuer) *Identity {
	return &Identity{db: db, passwords: passwords, tokens: tokens, now: time.Now}
}

func (id *Identity) Passwords() *PasswordHasher { return id.passwords }

func (id *Identity) Tokens() *TokenIssuer { return id.tokens }

// tokenBound is a Session that is only valid while its token is live.
type tokenBound interface {
	TokenID() string
}

// Authenticate resolves the caller behind s. Idle sessions and sessions whose
// user no longer exists are cleared. Token-bound sessions must carry a token
// that was not revoked by a logout or a later login.
func (id *Identity) Authenticate(ctx context.Context, s Session) (AccessContext, error) {
	userID, ok := s.UserID()
	if !ok {
		return Anonymous(nil), apperrors.ErrUnauthenticated
	}
	if tb, ok := s.(tokenBound); ok {
		live, err := id.tokenLive(ctx, tb.TokenID(), userID)
		if err != nil {
			return Anonymous(nil), err
		}
		if !live {
			return Anonymous(ErrTokenRevoked), ErrTokenRevoked
		}
	}

	now := id.now()
	if last := s.LastActivity(); last.IsZero() || now.Sub(last) > SessionIdleTimeout {
		if err := s.Clear(ctx); err != nil {
			return Anonymous(nil), fmt.Errorf("clear idle session: %w", err)
		}
		return Anonymous(ErrSessionExpired), ErrSessionExpired
	}

	var user models.User
	err := id.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.Clear(ctx); err != nil {
			return Anonymous(nil), fmt.Errorf("clear stale session: %w", err)
		}
		return Anonymous(ErrUnknownUser), ErrUnknownUser
	}
	if err != nil {
		return Anonymous(nil), fmt.Errorf("load session user: %w", err)
	}

	s.Touch(now)
	return NewAccessContext(user), nil
}

// Login checks the credentials and binds s to the user. On failure s is left
// untouched.
func (id *Identity) Login(ctx context.Context, s Session, username, password string) (models.User, string, error) {
	var user models.User
	err := id.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		id.passwords.VerifyNothing(password)
		return models.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !id.passwords.Verify(user.Password, password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := id.establish(ctx, s, user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// establish issues and records a new token for userID and binds s to it. The
// token s held before is revoked.
func (id *Identity) establish(ctx context.Context, s Session, userID uint) (string, error) {
	now := id.now()
	token, claims, err := id.tokens.Issue(userID, now)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}

	err = id.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := revoke(tx, id.tokens, s.Token()); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND expires_at < ?", userID, now).
			Delete(&models.SessionToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.SessionToken{
			ID:        claims.ID,
			UserID:    userID,
			ExpiresAt: claims.ExpiresAt,
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("record session token: %w", err)
	}

	if err := s.Establish(ctx, userID, token, now); err != nil {
		_ = revoke(id.db.WithContext(ctx), id.tokens, token)
		return "", fmt.Errorf("establish session: %w", err)
	}
	return token, nil
}

// Logout revokes the token behind s and clears s. Clearing an empty session
// is not an error.
func (id *Identity) Logout(ctx context.Context, s Session) error {
	if err := revoke(id.db.WithContext(ctx), id.tokens, s.Token()); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return s.Clear(ctx)
}

func (id *Identity) tokenLive(ctx context.Context, jti string, userID uint) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var n int64
	err := id.db.WithContext(ctx).Model(&models.SessionToken{}).
		Where("id = ? AND user_id = ? AND expires_at > ?", jti, userID, id.now()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check session token: %w", err)
	}
	return n > 0, nil
}

// revoke deletes the row of raw. Tokens that no longer verify have nothing
// left to revoke.
func revoke(db *gorm.DB, tokens *TokenIssuer, raw string) error {
	if raw == "" {
		return nil
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil
	}
	return db.Where("id = ?", claims.ID).Delete(&models.SessionToken{}).Error
}

type RegisterInput struct {
	Username  string `form:"username" json:"username" binding:"required"`
	Email     string `form:"email" json:"email" binding:"required,email"`
	Password  string `form:"password" json:"password" binding:"required,min=6"`
	Phone     string `form:"phone" json:"phone"`
	Address   string `form:"address" json:"address"`
	FirstName string `form:"firstName" json:"firstName"`
	LastName  string `form:"lastName" json:"lastName"`
}

// Register creates an ordinary user and logs the session in as that user.
func (id *Identity) Register(ctx context.Context, s Session, in RegisterInput) (models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return models.User{}, "", apperrors.Invalid("username, email and password are required")
	}

	hash, err := id.passwords.Hash(in.Password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   hash,
		Phone:      in.Phone,
		Address:    in.Address,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		UserStatus: models.RoleOrdinary,
	}

	err = id.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := CheckIdentityFree(tx, 0, user.Username, user.Email); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent registration.
		err = ClassifyDuplicate(id.db.WithContext(ctx), 0, user.Username, user.Email)
	}
	if err != nil {
		return models.User{}, "", err
	}

	token, err := id.establish(ctx, s, user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// CheckIdentityFree fails with ErrUsernameTaken or ErrEmailTaken when another
// user than exceptID holds username or email. Empty values are not checked.
func CheckIdentityFree(db *gorm.DB, exceptID uint, username, email string) error {
	if username != "" {
		taken, err := identityTaken(db, exceptID, "username", username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		taken, err := identityTaken(db, exceptID, "email", email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}

// ClassifyDuplicate names the field behind a unique violation on users.
func ClassifyDuplicate(db *gorm.DB, exceptID uint, username, email string) error {
	if err := CheckIdentityFree(db, exceptID, username, email); err != nil {
		return err
	}
	return apperrors.New(apperrors.ErrConflict, "user was modified concurrently, please retry")
}

func identityTaken(db *gorm.DB, exceptID uint, column, value string) (bool, error) {
	var n int64
	err := db.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return n > 0, nil
}
