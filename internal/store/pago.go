package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
)

const pagoColumns = `id, user_id, tipo, referencia_id, monto, estado, preference_id, init_point, provider_payment_id, created_at, updated_at`

func scanPago(row pgx.Row) (*model.Pago, error) {
	p := &model.Pago{}
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Tipo,
		&p.ReferenciaID,
		&p.Monto,
		&p.Estado,
		&p.PreferenceID,
		&p.InitPoint,
		&p.ProviderPaymentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func CreatePago(ctx context.Context, db database.Querier, p *model.Pago) (*model.Pago, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO pagos (user_id, tipo, referencia_id, monto)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, estado, created_at, updated_at`,
		p.UserID,
		p.Tipo,
		p.ReferenciaID,
		p.Monto,
	).Scan(&p.ID, &p.Estado, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("CreatePago: %w", err)
	}
	return p, nil
}

func SetPagoPreference(ctx context.Context, db database.Querier, id int, preferenceID, initPoint string) error {
	tag, err := db.Exec(ctx,
		`UPDATE pagos SET preference_id = $1, init_point = $2, updated_at = NOW() WHERE id = $3`,
		preferenceID,
		initPoint,
		id,
	)
	return affected("SetPagoPreference", tag, err)
}

func GetPago(ctx context.Context, db database.Querier, id int) (*model.Pago, error) {
	p, err := scanPago(db.QueryRow(ctx, `SELECT `+pagoColumns+` FROM pagos WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("GetPago: %w", err)
	}
	return p, nil
}

// GetPendingPago 同一使用者對同一課程或會費尚未完成的付款
func GetPendingPago(ctx context.Context, db database.Querier, userID int, tipo string, referenciaID int) (*model.Pago, error) {
	p, err := scanPago(db.QueryRow(ctx,
		`SELECT `+pagoColumns+` FROM pagos
		 WHERE user_id = $1 AND tipo = $2 AND referencia_id = $3 AND estado = 'pending'`,
		userID,
		tipo,
		referenciaID,
	))
	if err != nil {
		return nil, fmt.Errorf("GetPendingPago: %w", err)
	}
	return p, nil
}

// UpdatePagoStatusIfCurrent 只在目前狀態為 from 時轉換，回傳是否有更新
func UpdatePagoStatusIfCurrent(ctx context.Context, db database.Querier, id int, from, to, providerPaymentID string) (bool, error) {
	tag, err := db.Exec(ctx,
		`UPDATE pagos
		 SET estado = $1, provider_payment_id = $2, updated_at = NOW()
		 WHERE id = $3 AND estado = $4`,
		to,
		providerPaymentID,
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("UpdatePagoStatusIfCurrent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func collectPagos(fn string, rows pgx.Rows, err error) ([]model.Pago, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	defer rows.Close()

	list := []model.Pago{}
	for rows.Next() {
		p, err := scanPago(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return list, nil
}

func ListPagosByUser(ctx context.Context, db database.Querier, userID int) ([]model.Pago, error) {
	rows, err := db.Query(ctx,
		`SELECT `+pagoColumns+` FROM pagos WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	return collectPagos("ListPagosByUser", rows, err)
}

func ListPagos(ctx context.Context, db database.Querier, estado string) ([]model.Pago, error) {
	rows, err := db.Query(ctx,
		`SELECT `+pagoColumns+` FROM pagos
		 WHERE ($1 = '' OR estado = $1)
		 ORDER BY created_at DESC`,
		estado,
	)
	return collectPagos("ListPagos", rows, err)
}
