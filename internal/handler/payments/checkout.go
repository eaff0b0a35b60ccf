package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/payment"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	getCurso                  = store.GetCurso
	hasCursoAccess            = store.HasCursoAccess
	grantCursoAccess          = store.GrantCursoAccess
	createInscripcion         = store.CreateInscripcion
	getCuotaUsuario           = store.GetCuotaUsuario
	setCuotaUsuarioEstado     = store.SetCuotaUsuarioEstado
	getPendingPago            = store.GetPendingPago
	createPago                = store.CreatePago
	setPagoPreference         = store.SetPagoPreference
	getPago                   = store.GetPago
	updatePagoStatusIfCurrent = store.UpdatePagoStatusIfCurrent
	listPagosByUser           = store.ListPagosByUser
	listPagos                 = store.ListPagos
	withTx                    = database.WithTx
)

// CheckoutOptions 結帳時附給金流的網址
type CheckoutOptions struct {
	// BackURL 付款完成後導回的前端頁面
	BackURL         string
	NotificationURL string
}

type checkoutItem struct {
	tipo   string
	refID  int
	titulo string
	monto  float64
}

// startCheckout 建立 pending 的 pagos 紀錄與金流偏好設定
// 同一項目已有 pending 付款時沿用它的偏好設定，不再建立第二筆
// 金流失敗時把紀錄標為 cancelled，避免留下永遠 pending 的付款
func startCheckout(c echo.Context, db database.DB, gw payment.Gateway, opts CheckoutOptions, userID int, email string, it checkoutItem) error {
	ctx := c.Request().Context()
	pending, err := getPendingPago(ctx, db, userID, it.tipo, it.refID)
	switch {
	case err == nil:
		if pending.PreferenceID == nil || pending.InitPoint == nil {
			return c.JSON(http.StatusConflict, dto.HTTPError{Message: "payment already in progress"})
		}
		return c.JSON(http.StatusOK, dto.CheckoutResponse{
			PagoID:       pending.ID,
			PreferenceID: *pending.PreferenceID,
			InitPoint:    *pending.InitPoint,
		})
	case !database.IsNotFound(err):
		return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
	}

	pago, err := createPago(ctx, db, &model.Pago{
		UserID:       userID,
		Tipo:         it.tipo,
		ReferenciaID: it.refID,
		Monto:        it.monto,
	})
	if database.IsUniqueViolation(err) {
		return c.JSON(http.StatusConflict, dto.HTTPError{Message: "payment already in progress"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
	}

	pref, err := gw.CreatePreference(ctx, payment.PreferenceRequest{
		ExternalReference: strconv.Itoa(pago.ID),
		Items:             []payment.Item{{Title: it.titulo, Quantity: 1, UnitPrice: it.monto}},
		PayerEmail:        email,
		BackURL:           opts.BackURL,
		NotificationURL:   opts.NotificationURL,
	})
	if err != nil {
		cancelPago(ctx, db, pago.ID)
		if errors.Is(err, payment.ErrDisabled) {
			return c.JSON(http.StatusServiceUnavailable, dto.HTTPError{Message: err.Error()})
		}
		log.Printf("建立結帳失敗 (pago %d): %v", pago.ID, err)
		return c.JSON(http.StatusBadGateway, dto.HTTPError{Message: "payment provider error"})
	}
	if err := setPagoPreference(ctx, db, pago.ID, pref.ID, pref.InitPoint); err != nil {
		return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, dto.CheckoutResponse{
		PagoID:       pago.ID,
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
	})
}

func cancelPago(ctx context.Context, db database.DB, id int) {
	if _, err := updatePagoStatusIfCurrent(ctx, db, id, model.PagoPending, model.PagoCancelled, ""); err != nil {
		log.Printf("取消 pago %d 失敗: %v", id, err)
	}
}

// CheckoutCursoHandler 購買課程
// @Summary     Checkout curso
// @Description 建立 pending 付款並回傳金流的 init_point；已有 pending 付款時回傳原本的 (200)；已有存取權時回傳 409
// @Tags        payments
// @Produce     json
// @Param       id  path     int true "curso ID"
// @Success     200 {object} dto.CheckoutResponse
// @Success     201 {object} dto.CheckoutResponse
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Failure     409 {object} dto.HTTPError
// @Failure     502 {object} dto.HTTPError
// @Failure     503 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /payments/cursos/{id} [post]
func CheckoutCursoHandler(db database.DB, gw payment.Gateway, opts CheckoutOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "unauthorized"})
		}
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}

		ctx := c.Request().Context()
		curso, err := getCurso(ctx, db, id)
		if database.IsNotFound(err) || (err == nil && !curso.Activo) {
			return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "curso not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if curso.Precio <= 0 {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "curso has no price"})
		}
		has, err := hasCursoAccess(ctx, db, claims.UserID, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if has {
			return c.JSON(http.StatusConflict, dto.HTTPError{Message: "already has access to this curso"})
		}

		return startCheckout(c, db, gw, opts, claims.UserID, claims.Email, checkoutItem{
			tipo:   model.PagoCurso,
			refID:  id,
			titulo: curso.Titulo,
			monto:  curso.Precio,
		})
	}
}

// CheckoutCuotaHandler 支付自己的會費
// @Summary     Checkout cuota
// @Description 只能支付指派給自己的會費；已付時回傳 409
// @Tags        payments
// @Produce     json
// @Param       id  path     int true "cuota ID"
// @Success     200 {object} dto.CheckoutResponse
// @Success     201 {object} dto.CheckoutResponse
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Failure     409 {object} dto.HTTPError
// @Failure     502 {object} dto.HTTPError
// @Failure     503 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /payments/cuotas/{id} [post]
func CheckoutCuotaHandler(db database.DB, gw payment.Gateway, opts CheckoutOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "unauthorized"})
		}
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid cuota ID"})
		}

		cu, err := getCuotaUsuario(c.Request().Context(), db, id, claims.UserID)
		if database.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "cuota not assigned to user"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if cu.Estado == model.CuotaPagado {
			return c.JSON(http.StatusConflict, dto.HTTPError{Message: "cuota already paid"})
		}

		titulo := cu.Descripcion
		if titulo == "" {
			titulo = fmt.Sprintf("Cuota %02d/%d", cu.Mes, cu.Anio)
		}
		return startCheckout(c, db, gw, opts, claims.UserID, claims.Email, checkoutItem{
			tipo:   model.PagoCuota,
			refID:  id,
			titulo: titulo,
			monto:  cu.Monto,
		})
	}
}

// MisPagosHandler 目前使用者的付款紀錄
// @Summary     My payments
// @Tags        payments
// @Produce     json
// @Success     200 {array}  model.Pago
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /payments/mis-pagos [get]
func MisPagosHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "unauthorized"})
		}
		list, err := listPagosByUser(c.Request().Context(), db, claims.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// ListHandler 所有付款，可依狀態篩選
// @Summary     List payments
// @Tags        payments
// @Produce     json
// @Param       estado query    string false "pending / approved / rejected / cancelled"
// @Success     200    {array}  model.Pago
// @Failure     400    {object} dto.HTTPError
// @Failure     500    {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /payments [get]
func ListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		estado := c.QueryParam("estado")
		switch estado {
		case "", model.PagoPending, model.PagoApproved, model.PagoRejected, model.PagoCancelled:
		default:
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid estado"})
		}
		list, err := listPagos(c.Request().Context(), db, estado)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}
