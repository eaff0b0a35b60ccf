package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestGetUserByID(t *testing.T) {
	now := time.Now()
	db := &database.FakeDB{
		QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FROM users WHERE id = $1")
			require.Equal(t, []any{3}, args)
			return &fakeRow{vals: []any{3, "Ana", "ana@x.cl", "h", model.RoleAdmin, true, now, now}}
		},
	}
	u, err := GetUserByID(context.Background(), db, 3)
	require.NoError(t, err)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.True(t, u.Activo)

	db.QueryRowFn = func(context.Context, string, ...any) pgx.Row { return &fakeRow{err: pgx.ErrNoRows} }
	_, err = GetUserByID(context.Background(), db, 3)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	require.True(t, database.IsNotFound(err))
	require.Contains(t, err.Error(), "GetUserByID")
}

func TestCreateUserUniqueViolation(t *testing.T) {
	db := &database.FakeDB{
		QueryRowFn: func(context.Context, string, ...any) pgx.Row {
			return &fakeRow{err: &pgconn.PgError{Code: "23505"}}
		},
	}
	_, err := CreateUser(context.Background(), db, &model.User{Email: "a@b.cl"})
	require.True(t, database.IsUniqueViolation(err))
}

func TestUpdateUserNotFound(t *testing.T) {
	db := &database.FakeDB{
		ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.True(t, strings.HasPrefix(sql, "UPDATE users"))
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	err := UpdateUser(context.Background(), db, &model.User{ID: 9})
	require.True(t, database.IsNotFound(err))

	db.ExecFn = func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	require.NoError(t, DeactivateUser(context.Background(), db, 9))

	db.ExecFn = func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	require.EqualError(t, UpdateUserPassword(context.Background(), db, 9, "h"), "UpdateUserPassword: boom")
}

func TestListUsers(t *testing.T) {
	now := time.Now()
	rows := &fakeRows{data: [][]any{
		{1, "Ana", "ana@x.cl", "h", model.RoleAdmin, true, now, now},
		{2, "Beto", "beto@x.cl", "h", model.RoleNutricionista, true, now, now},
	}}
	db := &database.FakeDB{
		QueryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			require.Equal(t, []any{""}, args)
			return rows, nil
		},
	}
	users, err := ListUsers(context.Background(), db, "")
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "Beto", users[1].Name)
	require.True(t, rows.closed)
}

func TestMarkResetTokenUsed(t *testing.T) {
	db := &database.FakeDB{
		ExecFn: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "used = FALSE")
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	require.True(t, database.IsNotFound(MarkResetTokenUsed(context.Background(), db, 1)))
}
