package store

import (
	"context"
	"testing"
	"time"

	"nutriadmin/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestUpdatePagoStatusIfCurrent(t *testing.T) {
	tag := "UPDATE 1"
	db := &database.FakeDB{
		ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "WHERE id = $3 AND estado = $4")
			require.Equal(t, []any{"approved", "mp-1", 5, "pending"}, args)
			return pgconn.NewCommandTag(tag), nil
		},
	}
	ok, err := UpdatePagoStatusIfCurrent(context.Background(), db, 5, "pending", "approved", "mp-1")
	require.NoError(t, err)
	require.True(t, ok)

	tag = "UPDATE 0"
	ok, err = UpdatePagoStatusIfCurrent(context.Background(), db, 5, "pending", "approved", "mp-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssignCuotaToStaff(t *testing.T) {
	db := &database.FakeDB{
		ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "role IN ('admin', 'nutricionista')")
			require.Contains(t, sql, "ON CONFLICT (user_id, cuota_id) DO NOTHING")
			return pgconn.NewCommandTag("INSERT 0 4"), nil
		},
	}
	n, err := AssignCuotaToStaff(context.Background(), db, 3)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestGrantCursoAccessIdempotent(t *testing.T) {
	tag := "INSERT 0 1"
	db := &database.FakeDB{
		ExecFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag(tag), nil
		},
	}
	created, err := GrantCursoAccess(context.Background(), db, 1, 2, nil)
	require.NoError(t, err)
	require.True(t, created)

	tag = "INSERT 0 0"
	created, err = GrantCursoAccess(context.Background(), db, 1, 2, nil)
	require.NoError(t, err)
	require.False(t, created)
}

func TestGetPendingPago(t *testing.T) {
	pref, initPoint := "pref-1", "https://pay.test/init"
	db := &database.FakeDB{
		QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "estado = 'pending'")
			require.Equal(t, []any{7, "curso", 3}, args)
			return &fakeRow{vals: []any{30, 7, "curso", 3, 100.0, "pending", pref, initPoint, nil, time.Now(), time.Now()}}
		},
	}
	p, err := GetPendingPago(context.Background(), db, 7, "curso", 3)
	require.NoError(t, err)
	require.Equal(t, 30, p.ID)
	require.Equal(t, "pref-1", *p.PreferenceID)
	require.Equal(t, "https://pay.test/init", *p.InitPoint)
	require.Nil(t, p.ProviderPaymentID)

	db.QueryRowFn = func(context.Context, string, ...any) pgx.Row { return &fakeRow{err: pgx.ErrNoRows} }
	_, err = GetPendingPago(context.Background(), db, 7, "curso", 3)
	require.True(t, database.IsNotFound(err))
}

func TestSetPagoPreferenceStoresInitPoint(t *testing.T) {
	db := &database.FakeDB{
		ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "init_point = $2")
			require.Equal(t, []any{"pref-1", "https://pay.test/init", 31}, args)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	require.NoError(t, SetPagoPreference(context.Background(), db, 31, "pref-1", "https://pay.test/init"))
}

func TestCreateInscripcionIgnoresExisting(t *testing.T) {
	db := &database.FakeDB{
		ExecFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "ON CONFLICT (user_id, curso_id) DO NOTHING")
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		},
	}
	pagoID := 32
	require.NoError(t, CreateInscripcion(context.Background(), db, 7, 3, &pagoID))
}
