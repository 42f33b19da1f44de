package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/caseload/core"
)

var (
	ErrNotFound       = core.NewNotFoundError("user")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when taken by another user than excludedID.
		CheckUniqueness(ctx context.Context, username, email, excludedID string) error
		Create(ctx context.Context, usr User) error
		Query(ctx context.Context) ([]User, error)
		Get(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, username string) (User, error)
		Update(ctx context.Context, usr User) error
		Delete(ctx context.Context, ids ...string) (int64, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		tokens   tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.Auth.PasswordResetTimeoutDelta,
			now:       time.Now,
		},
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email, excludedID string) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, excludedID); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email, ""); err != nil {
		return User{}, err
	}

	now := core.Now()
	usr := User{
		ID:        core.NewID(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	if err := svc.repo.Create(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (svc *Service) Query(ctx context.Context) ([]User, error) {
	return svc.repo.Query(ctx)
}

func (svc *Service) Get(ctx context.Context, id string) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

// Authenticate checks the credentials of an active user and records the login.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !usr.IsActive || usr.CheckPassword(pwd) != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = core.Now()
	if err := svc.repo.Update(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "updating last login")
	}
	return usr, nil
}

// SetPassword validates and saves a new password for usr.
func (svc *Service) SetPassword(ctx context.Context, usr User, data SetPassword) (User, error) {
	if err := svc.validate.Struct(data); err != nil {
		return User{}, err
	}
	if err := checkPassword(svc.validate, data.Password, usr); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(data.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.Now()
	if err := svc.repo.Update(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int64, error) {
	return svc.repo.Delete(ctx, ids...)
}

// RequestPasswordReset mails a password reset link to the active user owning `email`.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetByUsernameOrEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if !usr.IsActive || usr.Email == "" {
		return ErrNotFound
	}

	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	}
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering password reset email")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

// ResetPassword sets a new password when the reset token of the user is valid.
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) (User, error) {
	if err := svc.validate.Struct(data); err != nil {
		return User{}, err
	}

	invalidLink := core.NewValidationError(nil, core.FieldError{Field: "token", Error: "invalid or expired reset link"})
	id, err := decodeUID(data.UID)
	if err != nil {
		return User{}, invalidLink
	}
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, invalidLink
		}
		return User{}, err
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return User{}, invalidLink
	}
	return svc.SetPassword(ctx, usr, SetPassword{Password: data.Password, PasswordConfirm: data.PasswordConfirm})
}
