package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUser_Inserted(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresUserRepo(mock)

	now := time.Now()
	u := &User{ID: "u-new", Email: "a@x.com", Role: RoleUser, LastLogin: now}
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (email) DO UPDATE SET last_login")).
		WithArgs("u-new", "a@x.com", "", "", RoleUser, now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "role", "inserted"}).AddRow("u-new", RoleUser, true))

	inserted, err := repo.UpsertUser(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "u-new", u.ID)
}

func TestUpsertUser_Existing(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresUserRepo(mock)

	u := &User{ID: "u-new", Email: "a@x.com", Role: RoleUser}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(anyArgs(6)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "role", "inserted"}).AddRow("u-old", RoleAdmin, false))

	inserted, err := repo.UpsertUser(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "u-old", u.ID)
	assert.Equal(t, RoleAdmin, u.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresUserRepo(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserRole(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresUserRepo(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $1 WHERE id = $2")).
		WithArgs(RoleAdmin, "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $1 WHERE email = $2")).
		WithArgs(RoleRider, "ghost@x.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.UpdateUserRole(context.Background(), "u-1", RoleAdmin))
	assert.ErrorIs(t, repo.UpdateUserRoleByEmail(context.Background(), "ghost@x.com", RoleRider), ErrNotFound)
}
