package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
)

func DashboardTotals(ctx context.Context, db database.Querier) (*model.DashboardTotals, error) {
	t := &model.DashboardTotals{UsuariosPorRol: map[string]int{}}
	if err := db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM pacientes WHERE activo),
			(SELECT COUNT(*) FROM sesiones_mediciones),
			(SELECT COUNT(*) FROM informes_antropometricos),
			(SELECT COUNT(*) FROM cursos WHERE activo),
			(SELECT COUNT(*) FROM cuotas_usuarios cu JOIN cuotas c ON c.id = cu.cuota_id
			  WHERE cu.estado = 'pendiente' AND c.activo)`,
	).Scan(
		&t.PacientesActivos,
		&t.Sesiones,
		&t.Informes,
		&t.CursosActivos,
		&t.CuotasPendientes,
	); err != nil {
		return nil, fmt.Errorf("DashboardTotals: %w", err)
	}

	rows, err := db.Query(ctx, `SELECT role, COUNT(*) FROM users WHERE activo GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("DashboardTotals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("DashboardTotals: %w", err)
		}
		t.UsuariosPorRol[role] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DashboardTotals: %w", err)
	}
	return t, nil
}

// MonthlyRevenue 最近 months 個月已核准的付款，依月份遞增，沒有付款的月份補 0
func MonthlyRevenue(ctx context.Context, db database.Querier, months int) ([]model.MonthlyRevenue, error) {
	rows, err := db.Query(ctx,
		`SELECT m.mes, COALESCE(SUM(p.monto), 0)::float8, COUNT(p.id)
		 FROM generate_series(
			date_trunc('month', NOW()) - make_interval(months => $1 - 1),
			date_trunc('month', NOW()),
			interval '1 month'
		 ) AS m(mes)
		 LEFT JOIN pagos p
		   ON p.estado = 'approved' AND date_trunc('month', p.updated_at) = m.mes
		 GROUP BY m.mes
		 ORDER BY m.mes`,
		months,
	)
	if err != nil {
		return nil, fmt.Errorf("MonthlyRevenue: %w", err)
	}
	defer rows.Close()

	list := []model.MonthlyRevenue{}
	for rows.Next() {
		var r model.MonthlyRevenue
		if err := rows.Scan(&r.Mes, &r.Total, &r.Pagos); err != nil {
			return nil, fmt.Errorf("MonthlyRevenue: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MonthlyRevenue: %w", err)
	}
	return list, nil
}
