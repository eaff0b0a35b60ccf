package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
)

const sesionSelect = `SELECT s.id, s.plantel_id, s.categoria_id, s.liga_id, s.fecha_sesion, s.user_id, s.archivo, s.created_at,
		p.nombre, c.nombre, l.nombre,
		(SELECT COUNT(*) FROM informes_antropometricos i WHERE i.sesion_id = s.id)
	 FROM sesiones_mediciones s
	 JOIN planteles p ON p.id = s.plantel_id
	 JOIN categorias c ON c.id = s.categoria_id
	 JOIN ligas l ON l.id = s.liga_id`

func scanSesion(row pgx.Row) (*model.Sesion, error) {
	s := &model.Sesion{}
	if err := row.Scan(
		&s.ID,
		&s.PlantelID,
		&s.CategoriaID,
		&s.LigaID,
		&s.FechaSesion,
		&s.UserID,
		&s.Archivo,
		&s.CreatedAt,
		&s.Plantel,
		&s.Categoria,
		&s.Liga,
		&s.TotalInformes,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func CreateSesion(ctx context.Context, db database.Querier, s *model.Sesion) (*model.Sesion, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO sesiones_mediciones (plantel_id, categoria_id, liga_id, fecha_sesion, user_id, archivo)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		s.PlantelID,
		s.CategoriaID,
		s.LigaID,
		s.FechaSesion,
		s.UserID,
		s.Archivo,
	).Scan(&s.ID, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateSesion: %w", err)
	}
	return s, nil
}

func GetSesion(ctx context.Context, db database.Querier, id int) (*model.Sesion, error) {
	s, err := scanSesion(db.QueryRow(ctx, sesionSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("GetSesion: %w", err)
	}
	return s, nil
}

func ListSesiones(ctx context.Context, db database.Querier, f model.SesionFilter) ([]model.Sesion, error) {
	rows, err := db.Query(ctx,
		sesionSelect+`
		 WHERE ($1 = 0 OR s.plantel_id = $1)
		   AND ($2 = 0 OR s.categoria_id = $2)
		   AND ($3 = 0 OR s.liga_id = $3)
		 ORDER BY s.fecha_sesion DESC, s.id DESC`,
		f.PlantelID,
		f.CategoriaID,
		f.LigaID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListSesiones: %w", err)
	}
	defer rows.Close()

	list := []model.Sesion{}
	for rows.Next() {
		s, err := scanSesion(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSesiones: %w", err)
		}
		list = append(list, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSesiones: %w", err)
	}
	return list, nil
}

// DeleteSesion 刪除 session，informes 由外鍵連帶刪除
func DeleteSesion(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `DELETE FROM sesiones_mediciones WHERE id = $1`, id)
	return affected("DeleteSesion", tag, err)
}
