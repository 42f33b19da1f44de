package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/user"
)

var userTable = newTable("users", user.ErrNotFound,
	[]core.DBOrdering{{Field: "name", Ascending: true}},
	"id", "name", "username", "email", "is_active", "password_hash", "created_at", "updated_at", "last_login",
)

// userRow stores empty usernames and emails as NULL so they don't collide on the unique indexes.
type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    core.Timestamp `db:"created_at"`
	UpdatedAt    core.Timestamp `db:"updated_at"`
	LastLogin    core.Timestamp `db:"last_login"`
}

func newUserRow(u user.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Username:     null.NewString(u.Username, u.Username != ""),
		Email:        null.NewString(u.Email, u.Email != ""),
		IsActive:     u.IsActive,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLogin:    u.LastLogin,
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email, excludedID string) error {
	count := func(col, val string) (int, error) {
		var n int
		query := repo.exec.Rebind("SELECT COUNT(*) FROM users WHERE LOWER(" + col + ") = ? AND id <> ?")
		err := repo.exec.GetContext(ctx, &n, query, strings.ToLower(val), excludedID)
		return n, errors.Wrap(err, "checking user "+col)
	}

	if username != "" {
		n, err := count("username", username)
		if err != nil {
			return err
		}
		if n > 0 {
			return user.ErrUsernameExists
		}
	}
	if email != "" {
		n, err := count("email", email)
		if err != nil {
			return err
		}
		if n > 0 {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) Create(ctx context.Context, usr user.User) error {
	return userTable.insert(ctx, repo.exec, newUserRow(usr))
}

func (repo userRepository) Query(ctx context.Context) ([]user.User, error) {
	rows := make([]userRow, 0)
	if err := userTable.query(ctx, repo.exec, &rows, nil, nil); err != nil {
		return nil, err
	}
	users := make([]user.User, len(rows))
	for i, r := range rows {
		users[i] = r.toUser()
	}
	return users, nil
}

func (repo userRepository) Get(ctx context.Context, id string) (user.User, error) {
	var r userRow
	if err := userTable.get(ctx, repo.exec, &r, id); err != nil {
		return user.User{}, err
	}
	return r.toUser(), nil
}

// GetByUsernameOrEmail matches the login against both username and email, case-insensitively.
func (repo userRepository) GetByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var r userRow
	login := strings.ToLower(strings.TrimSpace(username))
	query := repo.exec.Rebind(userTable.selectSQL() + " WHERE LOWER(username) = ? OR LOWER(email) = ?")
	if err := repo.exec.GetContext(ctx, &r, query, login, login); err != nil {
		return user.User{}, userTable.trapNoRowsErr(err, "getting user by username or email")
	}
	return r.toUser(), nil
}

func (repo userRepository) Update(ctx context.Context, usr user.User) error {
	return userTable.update(ctx, repo.exec, newUserRow(usr))
}

func (repo userRepository) Delete(ctx context.Context, ids ...string) (int64, error) {
	return userTable.delete(ctx, repo.exec, ids...)
}
