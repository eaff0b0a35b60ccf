package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"

	"github.com/jackc/pgx/v5"
)

const documentoColumns = `id, titulo, descripcion, fecha_evento, nombre_archivo, mime_type, tamano,
	thumbnail IS NOT NULL, subido_por, activo, created_at`

func scanDocumento(row pgx.Row) (*model.Documento, error) {
	d := &model.Documento{}
	if err := row.Scan(
		&d.ID,
		&d.Titulo,
		&d.Descripcion,
		&d.FechaEvento,
		&d.NombreArchivo,
		&d.MimeType,
		&d.Tamano,
		&d.HasThumbnail,
		&d.SubidoPor,
		&d.Activo,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return d, nil
}

func CreateDocumento(ctx context.Context, db database.Querier, d *model.Documento) (*model.Documento, error) {
	if err := db.QueryRow(ctx,
		`INSERT INTO documentos (titulo, descripcion, fecha_evento, nombre_archivo, mime_type, tamano, contenido, subido_por)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, activo, created_at`,
		d.Titulo,
		d.Descripcion,
		d.FechaEvento,
		d.NombreArchivo,
		d.MimeType,
		d.Tamano,
		d.Contenido,
		d.SubidoPor,
	).Scan(&d.ID, &d.Activo, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateDocumento: %w", err)
	}
	return d, nil
}

// ListDocumentos 只回傳中繼資料
func ListDocumentos(ctx context.Context, db database.Querier) ([]model.Documento, error) {
	rows, err := db.Query(ctx,
		`SELECT `+documentoColumns+` FROM documentos
		 WHERE activo
		 ORDER BY fecha_evento DESC NULLS LAST, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDocumentos: %w", err)
	}
	defer rows.Close()

	list := []model.Documento{}
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDocumentos: %w", err)
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDocumentos: %w", err)
	}
	return list, nil
}

func GetDocumento(ctx context.Context, db database.Querier, id int) (*model.Documento, error) {
	d, err := scanDocumento(db.QueryRow(ctx,
		`SELECT `+documentoColumns+` FROM documentos WHERE id = $1 AND activo`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("GetDocumento: %w", err)
	}
	return d, nil
}

func GetDocumentoContenido(ctx context.Context, db database.Querier, id int) (*model.Documento, error) {
	d := &model.Documento{ID: id}
	if err := db.QueryRow(ctx,
		`SELECT nombre_archivo, mime_type, contenido FROM documentos WHERE id = $1 AND activo`,
		id,
	).Scan(&d.NombreArchivo, &d.MimeType, &d.Contenido); err != nil {
		return nil, fmt.Errorf("GetDocumentoContenido: %w", err)
	}
	return d, nil
}

// GetDocumentoThumbnail 縮圖尚未產生時回傳 nil
func GetDocumentoThumbnail(ctx context.Context, db database.Querier, id int) ([]byte, error) {
	var thumb []byte
	if err := db.QueryRow(ctx,
		`SELECT thumbnail FROM documentos WHERE id = $1 AND activo`,
		id,
	).Scan(&thumb); err != nil {
		return nil, fmt.Errorf("GetDocumentoThumbnail: %w", err)
	}
	return thumb, nil
}

func SetDocumentoThumbnail(ctx context.Context, db database.Querier, id int, thumb []byte) error {
	tag, err := db.Exec(ctx, `UPDATE documentos SET thumbnail = $1 WHERE id = $2`, thumb, id)
	return affected("SetDocumentoThumbnail", tag, err)
}

func UpdateDocumento(ctx context.Context, db database.Querier, d *model.Documento) error {
	tag, err := db.Exec(ctx,
		`UPDATE documentos SET titulo = $1, descripcion = $2, fecha_evento = $3
		 WHERE id = $4 AND activo`,
		d.Titulo,
		d.Descripcion,
		d.FechaEvento,
		d.ID,
	)
	return affected("UpdateDocumento", tag, err)
}

func DeactivateDocumento(ctx context.Context, db database.Querier, id int) error {
	tag, err := db.Exec(ctx, `UPDATE documentos SET activo = FALSE WHERE id = $1 AND activo`, id)
	return affected("DeactivateDocumento", tag, err)
}
