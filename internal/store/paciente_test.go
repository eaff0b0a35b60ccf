package store

import (
	"context"
	"testing"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestFindPacienteByName(t *testing.T) {
	now := time.Now()
	db := &database.FakeDB{
		QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, `LOWER(regexp_replace(TRIM(nombre), '\s+', ' ', 'g'))`)
			require.Contains(t, sql, `LOWER(regexp_replace(TRIM($1), '\s+', ' ', 'g'))`)
			require.Equal(t, []any{"  JUAN   perez "}, args)
			return &fakeRow{vals: []any{5, "Juan Perez", nil, "M", 2, true, now, now}}
		},
	}
	p, err := FindPacienteByName(context.Background(), db, "  JUAN   perez ")
	require.NoError(t, err)
	require.Equal(t, 5, p.ID)
	require.Nil(t, p.FechaNacimiento)
	require.Equal(t, "M", *p.Sexo)
	require.Equal(t, 2, *p.PlantelID)
}

func TestListPacientes(t *testing.T) {
	now := time.Now()
	db := &database.FakeDB{
		QueryRowFn: func(_ context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "COUNT(*)")
			require.Equal(t, []any{"ju", 3}, args)
			return &fakeRow{vals: []any{41}}
		},
		QueryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "LIMIT $3 OFFSET $4")
			require.Equal(t, []any{"ju", 3, 20, 40}, args)
			return &fakeRows{data: [][]any{{41, "Julia", nil, nil, 3, true, now, now}}}, nil
		},
	}
	list, total, err := ListPacientes(context.Background(), db, model.PacienteFilter{Query: "ju", PlantelID: 3, Limit: 20, Offset: 40})
	require.NoError(t, err)
	require.Equal(t, 41, total)
	require.Len(t, list, 1)
	require.Equal(t, "Julia", list[0].Nombre)
}
