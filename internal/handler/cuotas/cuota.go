package cuotas

import (
	"log"
	"net/http"
	"strings"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	createCuota           = store.CreateCuota
	assignCuotaToStaff    = store.AssignCuotaToStaff
	listCuotas            = store.ListCuotas
	getCuota              = store.GetCuota
	updateCuota           = store.UpdateCuota
	deactivateCuota       = store.DeactivateCuota
	listCuotasForUser     = store.ListCuotasForUser
	setCuotaUsuarioEstado = store.SetCuotaUsuarioEstado
	withTx                = database.WithTx
)

func mapStoreError(c echo.Context, err error, what string) error {
	switch {
	case database.IsNotFound(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: what + " not found"})
	case database.IsUniqueViolation(err):
		return c.JSON(http.StatusConflict, dto.HTTPError{Message: "a cuota for that month already exists"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

// bindCuota 讀取並驗證請求，失敗時回傳給客戶端的訊息
func bindCuota(c echo.Context, cuota *model.Cuota) (string, bool) {
	var req dto.CuotaRequest
	if err := c.Bind(&req); err != nil {
		return "invalid request body", false
	}
	if err := c.Validate(&req); err != nil {
		return err.Error(), false
	}
	venc, err := time.Parse("2006-01-02", req.FechaVencimiento)
	if err != nil {
		return "invalid fecha_vencimiento", false
	}
	cuota.Mes = req.Mes
	cuota.Anio = req.Anio
	cuota.Monto = req.Monto
	cuota.Descripcion = strings.TrimSpace(req.Descripcion)
	cuota.FechaVencimiento = venc
	return "", true
}

// CreateHandler 新增會費並在同一交易中指派給所有工作人員
// @Summary     Create cuota
// @Description 同月份重複時回傳 409
// @Tags        cuotas
// @Accept      json
// @Produce     json
// @Param       body body     dto.CuotaRequest true "會費"
// @Success     201  {object} dto.CreateCuotaResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cuotas [post]
func CreateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		cuota := &model.Cuota{}
		if msg, ok := bindCuota(c, cuota); !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: msg})
		}

		ctx := c.Request().Context()
		var assigned int
		err := withTx(ctx, db, func(q database.Querier) error {
			created, err := createCuota(ctx, q, cuota)
			if err != nil {
				return err
			}
			assigned, err = assignCuotaToStaff(ctx, q, created.ID)
			return err
		})
		if err != nil {
			return mapStoreError(c, err, "cuota")
		}
		log.Printf("會費 %d/%d 建立，指派 %d 人", cuota.Mes, cuota.Anio, assigned)
		return c.JSON(http.StatusCreated, dto.CreateCuotaResponse{ID: cuota.ID, Asignados: assigned})
	}
}

// ListHandler 啟用中的會費與付款統計
// @Summary     List cuotas
// @Tags        cuotas
// @Produce     json
// @Success     200 {array}  model.Cuota
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cuotas [get]
func ListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listCuotas(c.Request().Context(), db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// MisCuotasHandler 目前使用者的會費狀態
// @Summary     My cuotas
// @Tags        cuotas
// @Produce     json
// @Success     200 {array}  model.CuotaUsuario
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cuotas/mis-cuotas [get]
func MisCuotasHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "unauthorized"})
		}
		list, err := listCuotasForUser(c.Request().Context(), db, claims.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// UpdateHandler 修改會費
// @Summary     Update cuota
// @Tags        cuotas
// @Accept      json
// @Produce     json
// @Param       id   path     int              true "cuota ID"
// @Param       body body     dto.CuotaRequest true "會費"
// @Success     200  {object} model.Cuota
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cuotas/{id} [put]
func UpdateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid cuota ID"})
		}
		ctx := c.Request().Context()
		cuota, err := getCuota(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err, "cuota")
		}
		if msg, ok := bindCuota(c, cuota); !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: msg})
		}
		if err := updateCuota(ctx, db, cuota); err != nil {
			return mapStoreError(c, err, "cuota")
		}
		return c.JSON(http.StatusOK, cuota)
	}
}

// DeleteHandler 停用會費
// @Summary     Delete cuota
// @Tags        cuotas
// @Param       id  path int true "cuota ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cuotas/{id} [delete]
func DeleteHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid cuota ID"})
		}
		if err := deactivateCuota(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err, "cuota")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// SetEstadoHandler admin 手動標記某位使用者的會費狀態
// @Summary     Set cuota estado for user
// @Tags        cuotas
// @Accept      json
// @Param       id      path int                    true "cuota ID"
// @Param       user_id path int                    true "user ID"
// @Param       body    body dto.CuotaEstadoRequest true "pendiente / pagado"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cuotas/{id}/usuarios/{user_id} [patch]
func SetEstadoHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid cuota ID"})
		}
		userID, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid user ID"})
		}
		var req dto.CuotaEstadoRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		if err := setCuotaUsuarioEstado(c.Request().Context(), db, id, userID, req.Estado); err != nil {
			return mapStoreError(c, err, "cuota assignment")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
