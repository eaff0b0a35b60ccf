package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
)

var (
	medidasList = strings.Join(model.MedidasColumns, ", ")

	informeSelect = `SELECT i.id, i.paciente_id, i.sesion_id, i.fecha_medicion, ` +
		prefixed("i.", model.MedidasColumns) + `, i.observaciones, i.created_at, p.nombre
	 FROM informes_antropometricos i
	 JOIN pacientes p ON p.id = i.paciente_id`

	informeInsert = buildInformeInsert()
	informeUpdate = buildInformeUpdate()
)

func prefixed(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}

func buildInformeInsert() string {
	n := len(model.MedidasColumns)
	ph := make([]string, 0, n+4)
	for i := 1; i <= n+4; i++ {
		ph = append(ph, fmt.Sprintf("$%d", i))
	}
	return `INSERT INTO informes_antropometricos (paciente_id, sesion_id, fecha_medicion, ` + medidasList + `, observaciones)
	 VALUES (` + strings.Join(ph, ", ") + `)
	 RETURNING id, created_at`
}

func buildInformeUpdate() string {
	sets := make([]string, 0, len(model.MedidasColumns)+2)
	sets = append(sets, "fecha_medicion = $1")
	for i, c := range model.MedidasColumns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}
	n := len(model.MedidasColumns)
	sets = append(sets, fmt.Sprintf("observaciones = $%d", n+2))
	return `UPDATE informes_antropometricos SET ` + strings.Join(sets, ", ") +
		fmt.Sprintf(` WHERE id = $%d`, n+3)
}

func medidasArgs(m *model.Medidas) []any {
	fields := m.Fields()
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return args
}

func scanInforme(row pgx.Row) (*model.Informe, error) {
	in := &model.Informe{}
	dest := []any{&in.ID, &in.PacienteID, &in.SesionID, &in.FechaMedicion}
	for _, t := range in.Medidas.Targets() {
		dest = append(dest, t)
	}
	dest = append(dest, &in.Observaciones, &in.CreatedAt, &in.PacienteNombre)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return in, nil
}

// InformeExists 同一病患同一天是否已有量測，與 session 無關
func InformeExists(ctx context.Context, db database.Querier, pacienteID int, fecha time.Time) (bool, error) {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM informes_antropometricos
			WHERE paciente_id = $1 AND fecha_medicion = $2::date
		 )`,
		pacienteID,
		fecha.Format("2006-01-02"),
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("InformeExists: %w", err)
	}
	return exists, nil
}

func CreateInforme(ctx context.Context, db database.Querier, in *model.Informe) (*model.Informe, error) {
	args := []any{in.PacienteID, in.SesionID, in.FechaMedicion}
	args = append(args, medidasArgs(&in.Medidas)...)
	args = append(args, in.Observaciones)
	if err := db.QueryRow(ctx, informeInsert, args...).Scan(&in.ID, &in.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateInforme: %w", err)
	}
	return in, nil
}

func GetInforme(ctx context.Context, db database.Querier, id int) (*model.Informe, error) {
	in, err := scanInforme(db.QueryRow(ctx, informeSelect+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("GetInforme: %w", err)
	}
	return in, nil
}

func listInformes(ctx context.Context, db database.Querier, fn, where string, arg any) ([]model.Informe, error) {
	rows, err := db.Query(ctx, informeSelect+` WHERE `+where+` ORDER BY i.fecha_medicion, i.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	defer rows.Close()

	list := []model.Informe{}
	for rows.Next() {
		in, err := scanInforme(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		list = append(list, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return list, nil
}

func ListInformesBySesion(ctx context.Context, db database.Querier, sesionID int) ([]model.Informe, error) {
	return listInformes(ctx, db, "ListInformesBySesion", "i.sesion_id = $1", sesionID)
}

// ListInformesByPaciente 歷史量測，依日期排序
func ListInformesByPaciente(ctx context.Context, db database.Querier, pacienteID int) ([]model.Informe, error) {
	return listInformes(ctx, db, "ListInformesByPaciente", "i.paciente_id = $1", pacienteID)
}

func UpdateInforme(ctx context.Context, db database.Querier, in *model.Informe) error {
	args := []any{in.FechaMedicion}
	args = append(args, medidasArgs(&in.Medidas)...)
	args = append(args, in.Observaciones, in.ID)
	tag, err := db.Exec(ctx, informeUpdate, args...)
	return affected("UpdateInforme", tag, err)
}

func DeleteInforme(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM informes_antropometricos WHERE id = $1`, id)
	return affected("DeleteInforme", tag, err)
}
