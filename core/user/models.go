package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/caseload/core"
)

type User struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Username     string         `json:"username" db:"username"`
	Email        string         `json:"email" db:"email"`
	IsActive     bool           `json:"isActive" db:"is_active"`
	PasswordHash []byte         `json:"-" db:"password_hash"`
	CreatedAt    core.Timestamp `json:"createdAt" db:"created_at"`
	UpdatedAt    core.Timestamp `json:"updatedAt" db:"updated_at"`
	LastLogin    core.Timestamp `json:"lastLogin" db:"last_login"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm,omitempty" validate:"required,eqfield=Password"`
}

// SetPassword is used to change the password of a known user (admin CLI).
type SetPassword struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}
