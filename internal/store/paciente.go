package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
)

const pacienteColumns = `id, nombre, fecha_nacimiento, sexo, plantel_id, activo, created_at, updated_at`

func scanPaciente(row pgx.Row) (*model.Paciente, error) {
	p := &model.Paciente{}
	if err := row.Scan(
		&p.ID,
		&p.Nombre,
		&p.FechaNacimiento,
		&p.Sexo,
		&p.PlantelID,
		&p.Activo,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return p, nil
}

// FindPacienteByName 不分大小寫比對姓名，連續空白視為一個，優先回傳啟用中的病患
func FindPacienteByName(ctx context.Context, db database.Querier, nombre string) (*model.Paciente, error) {
	p, err := scanPaciente(db.QueryRow(ctx,
		`SELECT `+pacienteColumns+` FROM pacientes
		 WHERE LOWER(regexp_replace(TRIM(nombre), '\s+', ' ', 'g')) = LOWER(regexp_replace(TRIM($1), '\s+', ' ', 'g'))
		 ORDER BY activo DESC, id
		 LIMIT 1`,
		nombre,
	))
	if err != nil {
		return nil, fmt.Errorf("FindPacienteByName: %w", err)
	}
	return p, nil
}

func GetPaciente(ctx context.Context, db database.Querier, id int) (*model.Paciente, error) {
	p, err := scanPaciente(db.QueryRow(ctx,
		`SELECT `+pacienteColumns+` FROM pacientes WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("GetPaciente: %w", err)
	}
	return p, nil
}

func CreatePaciente(ctx context.Context, db database.Querier, p *model.Paciente) (*model.Paciente, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO pacientes (nombre, fecha_nacimiento, sexo, plantel_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, activo, created_at, updated_at`,
		p.Nombre,
		p.FechaNacimiento,
		p.Sexo,
		p.PlantelID,
	).Scan(&p.ID, &p.Activo, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("CreatePaciente: %w", err)
	}
	return p, nil
}

// ListPacientes 回傳該頁資料與符合條件的總筆數
func ListPacientes(ctx context.Context, db database.Querier, f model.PacienteFilter) ([]model.Paciente, int, error) {
	const where = `WHERE activo
		 AND ($1 = '' OR nombre ILIKE '%' || $1 || '%')
		 AND ($2 = 0 OR plantel_id = $2)`

	var total int
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM pacientes `+where,
		f.Query,
		f.PlantelID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListPacientes: %w", err)
	}

	rows, err := db.Query(ctx,
		`SELECT `+pacienteColumns+` FROM pacientes `+where+`
		 ORDER BY nombre
		 LIMIT $3 OFFSET $4`,
		f.Query,
		f.PlantelID,
		f.Limit,
		f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListPacientes: %w", err)
	}
	defer rows.Close()

	list := []model.Paciente{}
	for rows.Next() {
		p, err := scanPaciente(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListPacientes: %w", err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListPacientes: %w", err)
	}
	return list, total, nil
}

func UpdatePaciente(ctx context.Context, db database.Querier, p *model.Paciente) error {
	tag, err := db.Exec(ctx,
		`UPDATE pacientes
		 SET nombre = $1, fecha_nacimiento = $2, sexo = $3, plantel_id = $4, activo = $5, updated_at = NOW()
		 WHERE id = $6`,
		p.Nombre,
		p.FechaNacimiento,
		p.Sexo,
		p.PlantelID,
		p.Activo,
		p.ID,
	)
	return affected("UpdatePaciente", tag, err)
}

func DeactivatePaciente(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx,
		`UPDATE pacientes SET activo = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	)
	return affected("DeactivatePaciente", tag, err)
}
