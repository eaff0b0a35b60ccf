package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// affected 將沒有影響任何列的更新視為找不到資料
func affected(fn string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fn, pgx.ErrNoRows)
	}
	return nil
}
