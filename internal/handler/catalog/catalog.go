package catalog

import (
	"net/http"
	"strings"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listCatalog           = store.ListCatalog
	createCatalogItem     = store.CreateCatalogItem
	updateCatalogItem     = store.UpdateCatalogItem
	deactivateCatalogItem = store.DeactivateCatalogItem
)

func mapStoreError(c echo.Context, err error) error {
	switch {
	case database.IsNotFound(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "item not found"})
	case database.IsUniqueViolation(err):
		return c.JSON(http.StatusConflict, dto.HTTPError{Message: "name already exists"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

// ListHandler 列出 planteles / categorias / ligas
// @Summary     List catalog items
// @Description kind 為 planteles、categorias 或 ligas；activo=true 只回傳啟用中的項目
// @Tags        catalog
// @Produce     json
// @Param       activo query    bool false "只列出啟用中"
// @Success     200    {array}  model.CatalogItem
// @Failure     500    {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /planteles [get]
// @Router      /categorias [get]
// @Router      /ligas [get]
func ListHandler(db database.DB, kind model.CatalogKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		onlyActive := c.QueryParam("activo") == "true"
		items, err := listCatalog(c.Request().Context(), db, kind, onlyActive)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, items)
	}
}

// CreateHandler 新增項目，名稱重複回傳 409
// @Summary     Create catalog item
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Param       body body     dto.CatalogRequest true "名稱"
// @Success     201  {object} model.CatalogItem
// @Failure     400  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /planteles [post]
// @Router      /categorias [post]
// @Router      /ligas [post]
func CreateHandler(db database.DB, kind model.CatalogKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.CatalogRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		it, err := createCatalogItem(c.Request().Context(), db, kind, strings.TrimSpace(req.Nombre))
		if err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusCreated, it)
	}
}

// UpdateHandler 修改名稱或啟用狀態 (activo 未提供時視為啟用)
// @Summary     Update catalog item
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Param       id   path     int                true "ID"
// @Param       body body     dto.CatalogRequest true "名稱與狀態"
// @Success     200  {object} model.CatalogItem
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /planteles/{id} [put]
// @Router      /categorias/{id} [put]
// @Router      /ligas/{id} [put]
func UpdateHandler(db database.DB, kind model.CatalogKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid ID"})
		}
		var req dto.CatalogRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		it := &model.CatalogItem{ID: id, Nombre: strings.TrimSpace(req.Nombre), Activo: true}
		if req.Activo != nil {
			it.Activo = *req.Activo
		}
		if err := updateCatalogItem(c.Request().Context(), db, kind, it); err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusOK, it)
	}
}

// DeleteHandler 停用項目
// @Summary     Deactivate catalog item
// @Tags        catalog
// @Param       id  path int true "ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /planteles/{id} [delete]
// @Router      /categorias/{id} [delete]
// @Router      /ligas/{id} [delete]
func DeleteHandler(db database.DB, kind model.CatalogKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid ID"})
		}
		if err := deactivateCatalogItem(c.Request().Context(), db, kind, id); err != nil {
			return mapStoreError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
