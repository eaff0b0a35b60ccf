package store

import (
	"context"
	"fmt"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
)

func catalogTable(fn string, kind model.CatalogKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%s: unknown catalog %q", fn, kind)
	}
	return string(kind), nil
}

func ListCatalog(ctx context.Context, db database.Querier, kind model.CatalogKind, onlyActive bool) ([]model.CatalogItem, error) {
	table, err := catalogTable("ListCatalog", kind)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx,
		`SELECT id, nombre, activo, created_at FROM `+table+`
		 WHERE (NOT $1 OR activo)
		 ORDER BY nombre`,
		onlyActive,
	)
	if err != nil {
		return nil, fmt.Errorf("ListCatalog: %w", err)
	}
	defer rows.Close()

	items := []model.CatalogItem{}
	for rows.Next() {
		var it model.CatalogItem
		if err := rows.Scan(&it.ID, &it.Nombre, &it.Activo, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListCatalog: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCatalog: %w", err)
	}
	return items, nil
}

func CreateCatalogItem(ctx context.Context, db database.Querier, kind model.CatalogKind, nombre string) (*model.CatalogItem, error) {
	table, err := catalogTable("CreateCatalogItem", kind)
	if err != nil {
		return nil, err
	}
	it := &model.CatalogItem{Nombre: nombre}
	if err := db.QueryRow(ctx,
		`INSERT INTO `+table+` (nombre) VALUES ($1)
		 RETURNING id, activo, created_at`,
		nombre,
	).Scan(&it.ID, &it.Activo, &it.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateCatalogItem: %w", err)
	}
	return it, nil
}

func UpdateCatalogItem(ctx context.Context, db database.Querier, kind model.CatalogKind, it *model.CatalogItem) error {
	table, err := catalogTable("UpdateCatalogItem", kind)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx,
		`UPDATE `+table+` SET nombre = $1, activo = $2 WHERE id = $3`,
		it.Nombre,
		it.Activo,
		it.ID,
	)
	return affected("UpdateCatalogItem", tag, err)
}

func DeactivateCatalogItem(ctx context.Context, db database.Querier, kind model.CatalogKind, id int) error {
	table, err := catalogTable("DeactivateCatalogItem", kind)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `UPDATE `+table+` SET activo = FALSE WHERE id = $1`, id)
	return affected("DeactivateCatalogItem", tag, err)
}

// CatalogItemActive 回傳是否啟用，不存在時回傳 pgx.ErrNoRows
func CatalogItemActive(ctx context.Context, db database.Querier, kind model.CatalogKind, id int) (bool, error) {
	table, err := catalogTable("CatalogItemActive", kind)
	if err != nil {
		return false, err
	}
	var activo bool
	if err := db.QueryRow(ctx, `SELECT activo FROM `+table+` WHERE id = $1`, id).Scan(&activo); err != nil {
		return false, fmt.Errorf("CatalogItemActive: %w", err)
	}
	return activo, nil
}
