package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
)

func CreateCuota(ctx context.Context, db database.Querier, c *model.Cuota) (*model.Cuota, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO cuotas (mes, anio, monto, descripcion, fecha_vencimiento)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, activo, created_at`,
		c.Mes,
		c.Anio,
		c.Monto,
		c.Descripcion,
		c.FechaVencimiento,
	).Scan(&c.ID, &c.Activo, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateCuota: %w", err)
	}
	return c, nil
}

// AssignCuotaToStaff 指派給所有啟用中的 admin 與 nutricionista，回傳新增筆數
func AssignCuotaToStaff(ctx context.Context, db database.Querier, cuotaID int) (int, error) {
	tag, err := db.Exec(ctx,
		`INSERT INTO cuotas_usuarios (cuota_id, user_id)
		 SELECT $1, id FROM users
		 WHERE activo AND role IN ('admin', 'nutricionista')
		 ON CONFLICT (user_id, cuota_id) DO NOTHING`,
		cuotaID,
	)
	if err != nil {
		return 0, fmt.Errorf("AssignCuotaToStaff: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const cuotaSelect = `SELECT c.id, c.mes, c.anio, c.monto, c.descripcion, c.fecha_vencimiento, c.activo, c.created_at,
		COUNT(cu.id) FILTER (WHERE cu.estado = 'pagado'),
		COUNT(cu.id) FILTER (WHERE cu.estado = 'pendiente')
	 FROM cuotas c
	 LEFT JOIN cuotas_usuarios cu ON cu.cuota_id = c.id`

func ListCuotas(ctx context.Context, db database.Querier) ([]model.Cuota, error) {
	rows, err := db.Query(ctx,
		cuotaSelect+`
		 WHERE c.activo
		 GROUP BY c.id
		 ORDER BY c.anio DESC, c.mes DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListCuotas: %w", err)
	}
	defer rows.Close()

	list := []model.Cuota{}
	for rows.Next() {
		var c model.Cuota
		if err := rows.Scan(
			&c.ID, &c.Mes, &c.Anio, &c.Monto, &c.Descripcion, &c.FechaVencimiento, &c.Activo, &c.CreatedAt,
			&c.Pagados, &c.Pendientes,
		); err != nil {
			return nil, fmt.Errorf("ListCuotas: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCuotas: %w", err)
	}
	return list, nil
}

func GetCuota(ctx context.Context, db database.Querier, id int) (*model.Cuota, error) {
	c := &model.Cuota{}
	if err := db.QueryRow(ctx,
		cuotaSelect+` WHERE c.id = $1 GROUP BY c.id`,
		id,
	).Scan(
		&c.ID, &c.Mes, &c.Anio, &c.Monto, &c.Descripcion, &c.FechaVencimiento, &c.Activo, &c.CreatedAt,
		&c.Pagados, &c.Pendientes,
	); err != nil {
		return nil, fmt.Errorf("GetCuota: %w", err)
	}
	return c, nil
}

func UpdateCuota(ctx context.Context, db database.Querier, c *model.Cuota) error {
	tag, err := db.Exec(ctx,
		`UPDATE cuotas SET mes = $1, anio = $2, monto = $3, descripcion = $4, fecha_vencimiento = $5
		 WHERE id = $6`,
		c.Mes,
		c.Anio,
		c.Monto,
		c.Descripcion,
		c.FechaVencimiento,
		c.ID,
	)
	return affected("UpdateCuota", tag, err)
}

func DeactivateCuota(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `UPDATE cuotas SET activo = FALSE WHERE id = $1`, id)
	return affected("DeactivateCuota", tag, err)
}

const cuotaUsuarioSelect = `SELECT cu.id, cu.cuota_id, cu.user_id, cu.estado, cu.pagado_at,
		c.mes, c.anio, c.monto, c.descripcion, c.fecha_vencimiento
	 FROM cuotas_usuarios cu
	 JOIN cuotas c ON c.id = cu.cuota_id`

func ListCuotasForUser(ctx context.Context, db database.Querier, userID int) ([]model.CuotaUsuario, error) {
	rows, err := db.Query(ctx,
		cuotaUsuarioSelect+`
		 WHERE cu.user_id = $1 AND c.activo
		 ORDER BY c.anio DESC, c.mes DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListCuotasForUser: %w", err)
	}
	defer rows.Close()

	list := []model.CuotaUsuario{}
	for rows.Next() {
		var cu model.CuotaUsuario
		if err := rows.Scan(
			&cu.ID, &cu.CuotaID, &cu.UserID, &cu.Estado, &cu.PagadoAt,
			&cu.Mes, &cu.Anio, &cu.Monto, &cu.Descripcion, &cu.FechaVencimiento,
		); err != nil {
			return nil, fmt.Errorf("ListCuotasForUser: %w", err)
		}
		list = append(list, cu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCuotasForUser: %w", err)
	}
	return list, nil
}

func GetCuotaUsuario(ctx context.Context, db database.Querier, cuotaID, userID int) (*model.CuotaUsuario, error) {
	cu := &model.CuotaUsuario{}
	if err := db.QueryRow(ctx,
		cuotaUsuarioSelect+` WHERE cu.cuota_id = $1 AND cu.user_id = $2`,
		cuotaID,
		userID,
	).Scan(
		&cu.ID, &cu.CuotaID, &cu.UserID, &cu.Estado, &cu.PagadoAt,
		&cu.Mes, &cu.Anio, &cu.Monto, &cu.Descripcion, &cu.FechaVencimiento,
	); err != nil {
		return nil, fmt.Errorf("GetCuotaUsuario: %w", err)
	}
	return cu, nil
}

// SetCuotaUsuarioEstado 標記已付或待付，pagado_at 跟著狀態設定
func SetCuotaUsuarioEstado(ctx context.Context, db database.Querier, cuotaID, userID int, estado string) error {
	tag, err := db.Exec(ctx,
		`UPDATE cuotas_usuarios
		 SET estado = $1::varchar,
		     pagado_at = CASE WHEN $1::varchar = 'pagado' THEN NOW() ELSE NULL END
		 WHERE cuota_id = $2 AND user_id = $3`,
		estado,
		cuotaID,
		userID,
	)
	return affected("SetCuotaUsuarioEstado", tag, err)
}
