package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
)

const cursoColumns = `id, titulo, descripcion, precio, imagen_url, activo, created_at, updated_at`

func scanCurso(row pgx.Row) (*model.Curso, error) {
	c := &model.Curso{}
	if err := row.Scan(
		&c.ID,
		&c.Titulo,
		&c.Descripcion,
		&c.Precio,
		&c.ImagenURL,
		&c.Activo,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return c, nil
}

func collectCursos(fn string, rows pgx.Rows, err error) ([]model.Curso, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	defer rows.Close()

	list := []model.Curso{}
	for rows.Next() {
		c, err := scanCurso(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return list, nil
}

func ListCursos(ctx context.Context, db database.Querier, onlyActive bool) ([]model.Curso, error) {
	rows, err := db.Query(ctx,
		`SELECT `+cursoColumns+` FROM cursos
		 WHERE (NOT $1 OR activo)
		 ORDER BY created_at DESC`,
		onlyActive,
	)
	return collectCursos("ListCursos", rows, err)
}

// ListCursosForUser 使用者擁有存取權的課程
func ListCursosForUser(ctx context.Context, db database.Querier, userID int) ([]model.Curso, error) {
	rows, err := db.Query(ctx,
		`SELECT c.id, c.titulo, c.descripcion, c.precio, c.imagen_url, c.activo, c.created_at, c.updated_at
		 FROM cursos c
		 JOIN curso_accesos a ON a.curso_id = c.id
		 WHERE a.user_id = $1 AND c.activo
		 ORDER BY a.created_at DESC`,
		userID,
	)
	return collectCursos("ListCursosForUser", rows, err)
}

func GetCurso(ctx context.Context, db database.Querier, id int) (*model.Curso, error) {
	c, err := scanCurso(db.QueryRow(ctx, `SELECT `+cursoColumns+` FROM cursos WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("GetCurso: %w", err)
	}
	return c, nil
}

func CreateCurso(ctx context.Context, db database.Querier, c *model.Curso) (*model.Curso, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO cursos (titulo, descripcion, precio)
		 VALUES ($1, $2, $3)
		 RETURNING id, activo, created_at, updated_at`,
		c.Titulo,
		c.Descripcion,
		c.Precio,
	).Scan(&c.ID, &c.Activo, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("CreateCurso: %w", err)
	}
	return c, nil
}

func UpdateCurso(ctx context.Context, db database.Querier, c *model.Curso) error {
	tag, err := db.Exec(ctx,
		`UPDATE cursos SET titulo = $1, descripcion = $2, precio = $3, activo = $4, updated_at = NOW()
		 WHERE id = $5`,
		c.Titulo,
		c.Descripcion,
		c.Precio,
		c.Activo,
		c.ID,
	)
	return affected("UpdateCurso", tag, err)
}

func SetCursoImagen(ctx context.Context, db database.Querier, id int, url string) error {
	tag, err := db.Exec(ctx,
		`UPDATE cursos SET imagen_url = $1, updated_at = NOW() WHERE id = $2`,
		url,
		id,
	)
	return affected("SetCursoImagen", tag, err)
}

func DeactivateCurso(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `UPDATE cursos SET activo = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return affected("DeactivateCurso", tag, err)
}

func HasCursoAccess(ctx context.Context, db database.Querier, userID, cursoID int) (bool, error) {
	var ok bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM curso_accesos WHERE user_id = $1 AND curso_id = $2)`,
		userID,
		cursoID,
	).Scan(&ok); err != nil {
		return false, fmt.Errorf("HasCursoAccess: %w", err)
	}
	return ok, nil
}

// GrantCursoAccess 已有存取權時不做事，回傳是否新增
func GrantCursoAccess(ctx context.Context, db database.Querier, userID, cursoID int, grantedBy *int) (bool, error) {
	tag, err := db.Exec(ctx,
		`INSERT INTO curso_accesos (user_id, curso_id, granted_by)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, curso_id) DO NOTHING`,
		userID,
		cursoID,
		grantedBy,
	)
	if err != nil {
		return false, fmt.Errorf("GrantCursoAccess: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func RevokeCursoAccess(ctx context.Context, db database.Querier, userID, cursoID int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM curso_accesos WHERE user_id = $1 AND curso_id = $2`,
		userID,
		cursoID,
	)
	return affected("RevokeCursoAccess", tag, err)
}

func CreateInscripcion(ctx context.Context, db database.Querier, userID, cursoID int, pagoID *int) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO inscripciones (user_id, curso_id, pago_id) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, curso_id) DO NOTHING`,
		userID,
		cursoID,
		pagoID,
	); err != nil {
		return fmt.Errorf("CreateInscripcion: %w", err)
	}
	return nil
}

func ListInscritos(ctx context.Context, db database.Querier, cursoID int) ([]model.Inscrito, error) {
	rows, err := db.Query(ctx,
		`SELECT u.id, u.name, u.email, a.granted_by, a.created_at
		 FROM curso_accesos a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.curso_id = $1
		 ORDER BY a.created_at`,
		cursoID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListInscritos: %w", err)
	}
	defer rows.Close()

	list := []model.Inscrito{}
	for rows.Next() {
		var i model.Inscrito
		if err := rows.Scan(&i.UserID, &i.Name, &i.Email, &i.GrantedBy, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListInscritos: %w", err)
		}
		list = append(list, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListInscritos: %w", err)
	}
	return list, nil
}
