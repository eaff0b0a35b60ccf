package anthropometric

import (
	"net/http"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listSesiones         = store.ListSesiones
	getSesion            = store.GetSesion
	deleteSesion         = store.DeleteSesion
	listInformesBySesion = store.ListInformesBySesion
	getInforme           = store.GetInforme
	updateInforme        = store.UpdateInforme
	deleteInforme        = store.DeleteInforme
)

func mapStoreError(c echo.Context, err error, what string) error {
	switch {
	case database.IsNotFound(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: what + " not found"})
	case database.IsUniqueViolation(err):
		return c.JSON(http.StatusConflict, dto.HTTPError{Message: "duplicate measurement for paciente and date"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

// ListSesionesHandler 列出量測 session
// @Summary     List sesiones
// @Tags        anthropometric
// @Produce     json
// @Param       plantel_id   query    int false "plantel"
// @Param       categoria_id query    int false "categoría"
// @Param       liga_id      query    int false "liga"
// @Success     200          {array}  model.Sesion
// @Failure     500          {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /anthropometric/sesiones [get]
func ListSesionesHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listSesiones(c.Request().Context(), db, model.SesionFilter{
			PlantelID:   handler.QueryInt(c, "plantel_id", 0),
			CategoriaID: handler.QueryInt(c, "categoria_id", 0),
			LigaID:      handler.QueryInt(c, "liga_id", 0),
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// GetSesionHandler session 與其量測 (含病患姓名)
// @Summary     Get sesion
// @Tags        anthropometric
// @Produce     json
// @Param       id  path     int true "session ID"
// @Success     200 {object} dto.SesionDetailResponse
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /anthropometric/sesiones/{id} [get]
func GetSesionHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid sesion ID"})
		}
		ctx := c.Request().Context()
		s, err := getSesion(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err, "sesion")
		}
		informes, err := listInformesBySesion(ctx, db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, dto.SesionDetailResponse{Sesion: *s, Informes: informes})
	}
}

// DeleteSesionHandler 刪除 session，量測一併刪除
// @Summary     Delete sesion
// @Tags        anthropometric
// @Param       id  path int true "session ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /anthropometric/sesiones/{id} [delete]
func DeleteSesionHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid sesion ID"})
		}
		if err := deleteSesion(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err, "sesion")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// GetInformeHandler 取得單筆量測
// @Summary     Get informe
// @Tags        anthropometric
// @Produce     json
// @Param       id  path     int true "informe ID"
// @Success     200 {object} model.Informe
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /anthropometric/informes/{id} [get]
func GetInformeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid informe ID"})
		}
		in, err := getInforme(c.Request().Context(), db, id)
		if err != nil {
			return mapStoreError(c, err, "informe")
		}
		return c.JSON(http.StatusOK, in)
	}
}

// UpdateInformeHandler 修正量測數值，有體重與身高時重新計算 IMC
// @Summary     Update informe
// @Tags        anthropometric
// @Accept      json
// @Produce     json
// @Param       id   path     int                      true "informe ID"
// @Param       body body     dto.UpdateInformeRequest true "量測數值"
// @Success     200  {object} model.Informe
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /anthropometric/informes/{id} [put]
func UpdateInformeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid informe ID"})
		}
		var req dto.UpdateInformeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		in, err := getInforme(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err, "informe")
		}
		if req.FechaMedicion != "" {
			d, err := time.Parse("2006-01-02", req.FechaMedicion)
			if err != nil {
				return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid fecha_medicion"})
			}
			in.FechaMedicion = d
		}
		in.Medidas = req.Medidas
		if in.Peso != nil && in.Talla != nil {
			in.IMC = nil
		}
		in.FillIMC()

		if err := updateInforme(ctx, db, in); err != nil {
			return mapStoreError(c, err, "informe")
		}
		return c.JSON(http.StatusOK, in)
	}
}

// DeleteInformeHandler 刪除單筆量測
// @Summary     Delete informe
// @Tags        anthropometric
// @Param       id  path int true "informe ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /anthropometric/informes/{id} [delete]
func DeleteInformeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid informe ID"})
		}
		if err := deleteInforme(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err, "informe")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
