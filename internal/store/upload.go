package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
)

func UploadHashExists(ctx context.Context, db database.Querier, hash string) (bool, error) {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM excel_uploads WHERE file_hash = $1)`,
		hash,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("UploadHashExists: %w", err)
	}
	return exists, nil
}

// CreateUpload 寫入稽核紀錄；file_hash 唯一鍵衝突代表同一檔案已上傳
func CreateUpload(ctx context.Context, db database.Querier, u *model.Upload) (*model.Upload, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO excel_uploads (sesion_id, user_id, nombre_archivo, file_hash, total_filas, registros_insertados, registros_duplicados)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		u.SesionID,
		u.UserID,
		u.NombreArchivo,
		u.FileHash,
		u.TotalFilas,
		u.RegistrosInsertados,
		u.RegistrosDuplicados,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateUpload: %w", err)
	}
	return u, nil
}

func ListUploads(ctx context.Context, db database.Querier, limit int) ([]model.Upload, error) {
	rows, err := db.Query(ctx,
		`SELECT id, sesion_id, user_id, nombre_archivo, file_hash, total_filas,
		        registros_insertados, registros_duplicados, created_at
		 FROM excel_uploads
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListUploads: %w", err)
	}
	defer rows.Close()

	list := []model.Upload{}
	for rows.Next() {
		var u model.Upload
		if err := rows.Scan(
			&u.ID,
			&u.SesionID,
			&u.UserID,
			&u.NombreArchivo,
			&u.FileHash,
			&u.TotalFilas,
			&u.RegistrosInsertados,
			&u.RegistrosDuplicados,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListUploads: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUploads: %w", err)
	}
	return list, nil
}

// FinishUpload 回填 session 與計數
func FinishUpload(ctx context.Context, db database.Querier, u *model.Upload) error {
	tag, err := db.Exec(ctx,
		`UPDATE excel_uploads
		 SET sesion_id = $1, total_filas = $2, registros_insertados = $3, registros_duplicados = $4
		 WHERE id = $5`,
		u.SesionID,
		u.TotalFilas,
		u.RegistrosInsertados,
		u.RegistrosDuplicados,
		u.ID,
	)
	return affected("FinishUpload", tag, err)
}
