package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/GraduateProjectPTIT/lms-backend/core/filtering"
	"github.com/GraduateProjectPTIT/lms-backend/core/user"
)

type dbUser struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Username          string         `db:"username"`
	Email             string         `db:"email"`
	AvatarURL         string         `db:"avatar_url"`
	IsActive          bool           `db:"is_active"`
	IsVerified        bool           `db:"is_verified"`
	IsSurveyCompleted bool           `db:"is_survey_completed"`
	Roles             pq.StringArray `db:"roles"`
	Interests         pq.StringArray `db:"interests"`
	Expertise         pq.StringArray `db:"expertise"`
	PasswordHash      []byte         `db:"password_hash"`
	CreatedAt         null.Time      `db:"created_at"`
	UpdatedAt         null.Time      `db:"updated_at"`
	LastLogin         null.Time      `db:"last_login"`
}

func (du dbUser) toUser() user.User {
	return user.User{
		ID:                du.ID,
		Name:              du.Name,
		Username:          du.Username,
		Email:             du.Email,
		AvatarURL:         du.AvatarURL,
		IsActive:          du.IsActive,
		IsVerified:        du.IsVerified,
		IsSurveyCompleted: du.IsSurveyCompleted,
		Roles:             du.Roles,
		Interests:         du.Interests,
		Expertise:         du.Expertise,
		PasswordHash:      du.PasswordHash,
		CreatedAt:         du.CreatedAt.Time,
		UpdatedAt:         du.UpdatedAt.Time,
		LastLogin:         du.LastLogin,
	}
}

// userSortColumns whitelists client sort keys.
var userSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"username":  "username",
	"email":     "email",
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	var matches []dbUser
	q := `SELECT username, email FROM "user" WHERE (LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)) AND id != ALL($3)`
	if err := repo.db.SelectContext(ctx, &matches, q, username, email, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, m := range matches {
		if strings.EqualFold(m.Username, username) {
			return user.ErrUsernameExists
		}
		if strings.EqualFold(m.Email, email) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
INSERT INTO "user" (name, username, email, avatar_url, is_active, is_verified, is_survey_completed,
                    roles, interests, expertise, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		usr.Name, usr.Username, usr.Email, usr.AvatarURL, usr.IsActive, usr.IsVerified, usr.IsSurveyCompleted,
		pq.Array(usr.Roles), pq.Array(usr.Interests), pq.Array(usr.Expertise),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user"`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users, nil
}

func (repo userRepository) getBy(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var row dbUser
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE `+where, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getBy(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, "LOWER(username) = LOWER($1)", username)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getBy(ctx, "LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)", username)
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, sort filtering.Sort, page filtering.Pagination) ([]user.User, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Keyword != "" {
		p := arg("%" + filter.Keyword + "%")
		where = append(where, "(name ILIKE "+p+" OR username ILIKE "+p+" OR email ILIKE "+p+")")
	}
	if filter.Role != "" {
		where = append(where, arg(filter.Role)+" = ANY(roles)")
	}
	if filter.IsVerified != nil {
		where = append(where, "is_verified = "+arg(*filter.IsVerified))
	}
	if filter.IsSurveyCompleted != nil {
		where = append(where, "is_survey_completed = "+arg(*filter.IsSurveyCompleted))
	}

	q := `SELECT *, COUNT(*) OVER() AS total FROM "user" WHERE ` + strings.Join(where, " AND ") +
		orderClause(userSortColumns, sort) + limitClause(&args, page)

	var rows []struct {
		dbUser
		Total int `db:"total"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering users")
	}

	users := make([]user.User, len(rows))
	total := 0
	for i, row := range rows {
		users[i] = row.toUser()
		total = row.Total
	}
	return users, total, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	if isActive != nil {
		usr.IsActive = *isActive
	}
	q := `
UPDATE "user"
SET name = $2, username = $3, email = $4, avatar_url = $5, is_active = $6, is_verified = $7,
    is_survey_completed = $8, roles = $9, interests = $10, expertise = $11, password_hash = $12,
    updated_at = $13, last_login = $14
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.AvatarURL, usr.IsActive, usr.IsVerified,
		usr.IsSurveyCompleted, pq.Array(usr.Roles), pq.Array(usr.Interests), pq.Array(usr.Expertise),
		usr.PasswordHash, usr.UpdatedAt, usr.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}
