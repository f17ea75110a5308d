package userControllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/alexcata03/Shop-Online/auth"
	cartControllers "github.com/alexcata03/Shop-Online/controllers/cart"
	"github.com/alexcata03/Shop-Online/controllers/render"
	"github.com/alexcata03/Shop-Online/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var ErrUserNotFound = apperrors.New(apperrors.ErrNotFound, "user not found")

// UpdateUserInput holds the fields a caller wants changed; nil means keep.
type UpdateUserInput struct {
	Username   *string      `form:"username" json:"username"`
	Email      *string      `form:"email" json:"email"`
	Password   *string      `form:"password" json:"password"`
	Phone      *string      `form:"phone" json:"phone"`
	Address    *string      `form:"address" json:"address"`
	FirstName  *string      `form:"firstName" json:"firstName"`
	LastName   *string      `form:"lastName" json:"lastName"`
	UserStatus *models.Role `form:"userStatus" json:"userStatus"`
}

// ListUsers returns every user. Privileged only.
func ListUsers(ctx context.Context, db *gorm.DB, access auth.AccessContext) ([]models.User, error) {
	if err := auth.Authorize(access, models.RolePrivileged); err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func GetUser(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string) (models.User, error) {
	if err := auth.AuthorizeOwner(access, username); err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser merges in over user id. Only privileged callers may change a
// role; a new password is hashed before it is stored.
func UpdateUser(ctx context.Context, db *gorm.DB, passwords *auth.PasswordHasher, access auth.AccessContext, id uint, in UpdateUserInput) (models.User, error) {
	if err := auth.AuthorizeUser(access, id); err != nil {
		return models.User{}, err
	}
	if in.UserStatus != nil {
		if !access.IsPrivileged() {
			return models.User{}, apperrors.New(apperrors.ErrForbidden, "only privileged users can change userStatus")
		}
		if !in.UserStatus.Valid() {
			return models.User{}, apperrors.Invalid("invalid userStatus %d", *in.UserStatus)
		}
	}

	var hash string
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return models.User{}, apperrors.Invalid("password must be at least 6 characters")
		}
		var err error
		if hash, err = passwords.Hash(*in.Password); err != nil {
			return models.User{}, err
		}
	}

	var user models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		oldUsername := user.Username
		if err := in.apply(&user); err != nil {
			return err
		}
		if hash != "" {
			user.Password = hash
		}
		if err := auth.CheckIdentityFree(tx, user.ID, user.Username, user.Email); err != nil {
			return err
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if oldUsername != user.Username {
			// carts are keyed by username
			return tx.Model(&models.Cart{}).Where("username = ?", oldUsername).
				Update("username", user.Username).Error
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = auth.ClassifyDuplicate(db.WithContext(ctx), id, user.Username, user.Email)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (in UpdateUserInput) apply(u *models.User) error {
	if in.Username != nil {
		if u.Username = strings.TrimSpace(*in.Username); u.Username == "" {
			return apperrors.Invalid("username cannot be blank")
		}
	}
	if in.Email != nil {
		if u.Email = strings.TrimSpace(*in.Email); u.Email == "" {
			return apperrors.Invalid("email cannot be blank")
		}
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.UserStatus != nil {
		u.UserStatus = *in.UserStatus
	}
	return nil
}

// DeleteUser removes the user with their cart. Orders are kept as history.
// Deleting an absent user succeeds.
func DeleteUser(ctx context.Context, db *gorm.DB, access auth.AccessContext, username string) error {
	if err := auth.Authorize(access, models.RolePrivileged); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cartControllers.RemoveUserCart(tx, username); err != nil {
			return err
		}
		if err := tx.Where("user_id IN (?)", tx.Model(&models.User{}).Select("id").Where("username = ?", username)).
			Delete(&models.SessionToken{}).Error; err != nil {
			return err
		}
		return tx.Where("username = ?", username).Delete(&models.User{}).Error
	})
}

// GET /users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := ListUsers(c.Request.Context(), db, auth.Access(c))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// GET /users/:username
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUser(c.Request.Context(), db, auth.Access(c), c.Param("username"))
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /users/:id
func UpdateUserHandler(db *gorm.DB, passwords *auth.PasswordHasher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := render.PathID(c, "id")
		if err != nil {
			render.Error(c, err)
			return
		}
		var input UpdateUserInput
		if err := c.ShouldBind(&input); err != nil {
			render.BindError(c, err)
			return
		}
		user, err := UpdateUser(c.Request.Context(), db, passwords, auth.Access(c), id, input)
		if err != nil {
			render.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DELETE /users/:username
func DeleteUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := DeleteUser(c.Request.Context(), db, auth.Access(c), c.Param("username")); err != nil {
			render.Error(c, err)
			return
		}
		render.Message(c, http.StatusOK, "user deleted")
	}
}

// Promote grants username the privileged role. It is the bootstrap path for
// the first administrator and is only reachable from the command line.
func Promote(ctx context.Context, db *gorm.DB, username string) (models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.UserStatus = models.RolePrivileged
		return tx.Model(&user).Update("user_status", models.RolePrivileged).Error
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
