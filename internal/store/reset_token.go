package store

import (
	"context"
	"fmt"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
)

func CreateResetToken(ctx context.Context, db database.Querier, userID int, token string, expiresAt time.Time) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO password_reset_tokens (user_id, token, expires_at)
		 VALUES ($1, $2, $3)`,
		userID,
		token,
		expiresAt,
	); err != nil {
		return fmt.Errorf("CreateResetToken: %w", err)
	}
	return nil
}

func GetResetToken(ctx context.Context, db database.Querier, token string) (*model.PasswordResetToken, error) {
	t := &model.PasswordResetToken{}
	if err := db.QueryRow(ctx,
		`SELECT id, user_id, token, expires_at, used, created_at
		 FROM password_reset_tokens WHERE token = $1`,
		token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("GetResetToken: %w", err)
	}
	return t, nil
}

// MarkResetTokenUsed 只有尚未使用的 token 會被更新
func MarkResetTokenUsed(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx,
		`UPDATE password_reset_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`,
		id,
	)
	return affected("MarkResetTokenUsed", tag, err)
}
