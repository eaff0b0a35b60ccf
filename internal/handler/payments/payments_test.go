package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/database"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/payment"
	"nutriadmin/internal/service"
	"nutriadmin/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	prefReq payment.PreferenceRequest
	prefErr error
	pay     *payment.Payment
	payErr  error
}

func (f *fakeGateway) CreatePreference(_ context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	f.prefReq = req
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	return &payment.Preference{ID: "pref-1", InitPoint: "https://pay.test/init?pref=pref-1"}, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*payment.Payment, error) {
	if f.payErr != nil {
		return nil, f.payErr
	}
	return f.pay, nil
}

func restore() {
	getCurso = store.GetCurso
	hasCursoAccess = store.HasCursoAccess
	grantCursoAccess = store.GrantCursoAccess
	createInscripcion = store.CreateInscripcion
	getCuotaUsuario = store.GetCuotaUsuario
	setCuotaUsuarioEstado = store.SetCuotaUsuarioEstado
	getPendingPago = store.GetPendingPago
	createPago = store.CreatePago
	setPagoPreference = store.SetPagoPreference
	getPago = store.GetPago
	updatePagoStatusIfCurrent = store.UpdatePagoStatusIfCurrent
	listPagosByUser = store.ListPagosByUser
	listPagos = store.ListPagos
	withTx = database.WithTx
}

var opts = CheckoutOptions{BackURL: "http://front.test/pagos", NotificationURL: "http://api.test/api/payments/webhook"}

func userCtx(e *echo.Echo, method, target, body string, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 7, Role: model.RoleCliente, Email: "ana@test.com"})
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func stubPagoWrites(t *testing.T) (*model.Pago, *string) {
	created := &model.Pago{}
	pref := new(string)
	getPendingPago = func(context.Context, database.Querier, int, string, int) (*model.Pago, error) {
		return nil, fmt.Errorf("GetPendingPago: %w", pgx.ErrNoRows)
	}
	createPago = func(_ context.Context, _ database.Querier, p *model.Pago) (*model.Pago, error) {
		*created = *p
		p.ID = 31
		p.Estado = model.PagoPending
		return p, nil
	}
	setPagoPreference = func(_ context.Context, _ database.Querier, id int, prefID, initPoint string) error {
		require.Equal(t, 31, id)
		require.Equal(t, "https://pay.test/init?pref=pref-1", initPoint)
		*pref = prefID
		return nil
	}
	return created, pref
}

func TestCheckoutCurso(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	getCurso = func(_ context.Context, _ database.Querier, id int) (*model.Curso, error) {
		switch id {
		case 404:
			return nil, fmt.Errorf("GetCurso: %w", pgx.ErrNoRows)
		case 5:
			return &model.Curso{ID: 5, Titulo: "Inactivo", Precio: 10}, nil
		}
		return &model.Curso{ID: id, Titulo: "Nutrición I", Precio: 25000, Activo: true}, nil
	}
	hasCursoAccess = func(_ context.Context, _ database.Querier, userID, cursoID int) (bool, error) {
		require.Equal(t, 7, userID)
		return cursoID == 2, nil
	}
	created, pref := stubPagoWrites(t)
	gw := &fakeGateway{}

	ctx, rec := userCtx(e, http.MethodPost, "/", "", "1")
	require.NoError(t, CheckoutCursoHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"pago_id":31,"preference_id":"pref-1","init_point":"https://pay.test/init?pref=pref-1"}`, rec.Body.String())
	require.Equal(t, model.Pago{UserID: 7, Tipo: model.PagoCurso, ReferenciaID: 1, Monto: 25000}, *created)
	require.Equal(t, "pref-1", *pref)
	require.Equal(t, "31", gw.prefReq.ExternalReference)
	require.Equal(t, "ana@test.com", gw.prefReq.PayerEmail)
	require.Equal(t, opts.NotificationURL, gw.prefReq.NotificationURL)
	require.Equal(t, []payment.Item{{Title: "Nutrición I", Quantity: 1, UnitPrice: 25000}}, gw.prefReq.Items)

	ctx, rec = userCtx(e, http.MethodPost, "/", "", "2")
	require.NoError(t, CheckoutCursoHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)

	for _, id := range []string{"404", "5"} {
		ctx, rec = userCtx(e, http.MethodPost, "/", "", id)
		require.NoError(t, CheckoutCursoHandler(nil, gw, opts)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestCheckoutReusesPendingPago(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	getCurso = func(_ context.Context, _ database.Querier, id int) (*model.Curso, error) {
		return &model.Curso{ID: id, Titulo: "Curso", Precio: 100, Activo: true}, nil
	}
	hasCursoAccess = func(context.Context, database.Querier, int, int) (bool, error) { return false, nil }
	prefID, initPoint := "pref-old", "https://pay.test/init?pref=pref-old"
	getPendingPago = func(_ context.Context, _ database.Querier, userID int, tipo string, refID int) (*model.Pago, error) {
		require.Equal(t, 7, userID)
		switch {
		case tipo == model.PagoCurso && refID == 3:
			return &model.Pago{ID: 30, Estado: model.PagoPending, PreferenceID: &prefID, InitPoint: &initPoint}, nil
		case tipo == model.PagoCurso && refID == 4:
			// 另一個請求正在建立偏好設定
			return &model.Pago{ID: 33, Estado: model.PagoPending}, nil
		}
		return nil, fmt.Errorf("GetPendingPago: %w", pgx.ErrNoRows)
	}
	createPago = func(context.Context, database.Querier, *model.Pago) (*model.Pago, error) {
		return nil, fmt.Errorf("CreatePago: %w", &pgconn.PgError{Code: "23505"})
	}
	gw := &fakeGateway{}

	ctx, rec := userCtx(e, http.MethodPost, "/", "", "3")
	require.NoError(t, CheckoutCursoHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"pago_id":30,"preference_id":"pref-old","init_point":"https://pay.test/init?pref=pref-old"}`, rec.Body.String())
	require.Empty(t, gw.prefReq.ExternalReference)

	ctx, rec = userCtx(e, http.MethodPost, "/", "", "4")
	require.NoError(t, CheckoutCursoHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)

	// 查詢與寫入之間被搶先建立
	ctx, rec = userCtx(e, http.MethodPost, "/", "", "5")
	require.NoError(t, CheckoutCursoHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, gw.prefReq.ExternalReference)

	getCuotaUsuario = func(_ context.Context, _ database.Querier, cuotaID, userID int) (*model.CuotaUsuario, error) {
		return &model.CuotaUsuario{CuotaID: cuotaID, Estado: model.CuotaPendiente, Mes: 3, Anio: 2025, Monto: 15000}, nil
	}
	getPendingPago = func(_ context.Context, _ database.Querier, _ int, tipo string, refID int) (*model.Pago, error) {
		require.Equal(t, model.PagoCuota, tipo)
		require.Equal(t, 9, refID)
		return &model.Pago{ID: 34, Estado: model.PagoPending, PreferenceID: &prefID, InitPoint: &initPoint}, nil
	}
	ctx, rec = userCtx(e, http.MethodPost, "/", "", "9")
	require.NoError(t, CheckoutCuotaHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pago_id":34`)
}

func TestCheckoutGatewayFailureCancelsPago(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	getCurso = func(_ context.Context, _ database.Querier, id int) (*model.Curso, error) {
		return &model.Curso{ID: id, Titulo: "Curso", Precio: 100, Activo: true}, nil
	}
	hasCursoAccess = func(context.Context, database.Querier, int, int) (bool, error) { return false, nil }
	stubPagoWrites(t)
	var cancelled []string
	updatePagoStatusIfCurrent = func(_ context.Context, _ database.Querier, id int, from, to, providerID string) (bool, error) {
		require.Equal(t, 31, id)
		require.Equal(t, model.PagoPending, from)
		cancelled = append(cancelled, to)
		return true, nil
	}

	ctx, rec := userCtx(e, http.MethodPost, "/", "", "1")
	require.NoError(t, CheckoutCursoHandler(nil, payment.Disabled{}, opts)(ctx))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ctx, rec = userCtx(e, http.MethodPost, "/", "", "1")
	require.NoError(t, CheckoutCursoHandler(nil, &fakeGateway{prefErr: &payment.APIError{Status: 500}}, opts)(ctx))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, []string{model.PagoCancelled, model.PagoCancelled}, cancelled)
}

func TestCheckoutCuota(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	getCuotaUsuario = func(_ context.Context, _ database.Querier, cuotaID, userID int) (*model.CuotaUsuario, error) {
		require.Equal(t, 7, userID)
		switch cuotaID {
		case 404:
			return nil, fmt.Errorf("GetCuotaUsuario: %w", pgx.ErrNoRows)
		case 2:
			return &model.CuotaUsuario{CuotaID: 2, Estado: model.CuotaPagado}, nil
		}
		return &model.CuotaUsuario{CuotaID: cuotaID, Estado: model.CuotaPendiente, Mes: 3, Anio: 2025, Monto: 15000}, nil
	}
	created, _ := stubPagoWrites(t)
	gw := &fakeGateway{}

	ctx, rec := userCtx(e, http.MethodPost, "/", "", "1")
	require.NoError(t, CheckoutCuotaHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, model.PagoCuota, created.Tipo)
	require.Equal(t, 15000.0, created.Monto)
	require.Equal(t, "Cuota 03/2025", gw.prefReq.Items[0].Title)

	ctx, rec = userCtx(e, http.MethodPost, "/", "", "2")
	require.NoError(t, CheckoutCuotaHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)

	ctx, rec = userCtx(e, http.MethodPost, "/", "", "404")
	require.NoError(t, CheckoutCuotaHandler(nil, gw, opts)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListHandlers(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	listPagosByUser = func(_ context.Context, _ database.Querier, userID int) ([]model.Pago, error) {
		require.Equal(t, 7, userID)
		return []model.Pago{{ID: 1}}, nil
	}
	var gotEstado string
	listPagos = func(_ context.Context, _ database.Querier, estado string) ([]model.Pago, error) {
		gotEstado = estado
		return []model.Pago{}, nil
	}

	ctx, rec := userCtx(e, http.MethodGet, "/", "", "")
	require.NoError(t, MisPagosHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, rec = userCtx(e, http.MethodGet, "/payments?estado=approved", "", "")
	require.NoError(t, ListHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.PagoApproved, gotEstado)

	ctx, rec = userCtx(e, http.MethodGet, "/payments?estado=paid", "", "")
	require.NoError(t, ListHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type webhookState struct {
	tx        *database.FakeTx
	granted   bool
	enrolled  bool
	cuotaPaid bool
	updates   int
	cacheDel  []string
}

func setupWebhook(t *testing.T, pago *model.Pago, current string) (*webhookState, *database.FakeDB, *cache.FakeCache) {
	st := &webhookState{tx: &database.FakeTx{}}
	getPago = func(_ context.Context, q database.Querier, id int) (*model.Pago, error) {
		require.Equal(t, st.tx, q)
		if pago == nil {
			return nil, fmt.Errorf("GetPago: %w", pgx.ErrNoRows)
		}
		return pago, nil
	}
	updatePagoStatusIfCurrent = func(_ context.Context, _ database.Querier, id int, from, to, providerID string) (bool, error) {
		require.Equal(t, "pay-99", providerID)
		if current != from {
			return false, nil
		}
		current = to
		st.updates++
		return true, nil
	}
	grantCursoAccess = func(_ context.Context, _ database.Querier, userID, cursoID int, grantedBy *int) (bool, error) {
		require.Nil(t, grantedBy)
		st.granted = true
		return true, nil
	}
	createInscripcion = func(_ context.Context, _ database.Querier, userID, cursoID int, pagoID *int) error {
		require.Equal(t, pago.ID, *pagoID)
		st.enrolled = true
		return nil
	}
	setCuotaUsuarioEstado = func(_ context.Context, _ database.Querier, cuotaID, userID int, estado string) error {
		require.Equal(t, model.CuotaPagado, estado)
		st.cuotaPaid = true
		return nil
	}
	db := &database.FakeDB{BeginFn: func(context.Context) (pgx.Tx, error) { return st.tx, nil }}
	fc := &cache.FakeCache{DelFn: func(_ context.Context, keys ...string) *redis.IntCmd {
		st.cacheDel = append(st.cacheDel, keys...)
		return redis.NewIntResult(1, nil)
	}}
	return st, db, fc
}

func webhookCtx(e *echo.Echo, body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const paymentBody = `{"type":"payment","action":"payment.updated","data":{"id":"pay-99"}}`

func TestWebhookApprovedCursoIsIdempotent(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	pago := &model.Pago{ID: 31, UserID: 7, Tipo: model.PagoCurso, ReferenciaID: 3}
	st, db, fc := setupWebhook(t, pago, model.PagoPending)
	gw := &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "approved", ExternalReference: "31"}}

	ctx, rec := webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(db, fc, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), model.PagoApproved)
	require.True(t, st.granted)
	require.True(t, st.enrolled)
	require.True(t, st.tx.Committed)
	require.Equal(t, []string{cache.DashboardKey}, st.cacheDel)

	// 第二次通知不再授權
	st.granted, st.enrolled = false, false
	st.tx = &database.FakeTx{}
	ctx, rec = webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(db, fc, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "already processed")
	require.False(t, st.granted)
	require.Equal(t, 1, st.updates)
}

func TestWebhookSecondApprovedPagoDoesNotEnrollAgain(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	pago := &model.Pago{ID: 32, UserID: 7, Tipo: model.PagoCurso, ReferenciaID: 3}
	st, db, fc := setupWebhook(t, pago, model.PagoPending)
	// 第一筆付款已授權過
	grantCursoAccess = func(context.Context, database.Querier, int, int, *int) (bool, error) { return false, nil }
	gw := &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "approved", ExternalReference: "32"}}

	ctx, rec := webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(db, fc, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, st.updates)
	require.False(t, st.enrolled)
	require.True(t, st.tx.Committed)
}

func TestWebhookApprovedCuota(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	pago := &model.Pago{ID: 32, UserID: 7, Tipo: model.PagoCuota, ReferenciaID: 4}
	st, db, _ := setupWebhook(t, pago, model.PagoPending)
	gw := &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "approved", ExternalReference: "32"}}

	ctx, rec := webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(db, nil, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, st.cuotaPaid)
	require.False(t, st.granted)
}

func TestWebhookRejectedOnlyUpdatesStatus(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	pago := &model.Pago{ID: 31, UserID: 7, Tipo: model.PagoCurso, ReferenciaID: 3}
	st, db, fc := setupWebhook(t, pago, model.PagoPending)
	gw := &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "rejected", ExternalReference: "31"}}

	ctx, rec := webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(db, fc, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), model.PagoRejected)
	require.Equal(t, 1, st.updates)
	require.False(t, st.granted)
	require.Empty(t, st.cacheDel)
}

func TestWebhookIgnoredCases(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()

	ctx, rec := webhookCtx(e, `{"type":"merchant_order","data":{"id":"1"}}`, nil)
	require.NoError(t, WebhookHandler(nil, nil, &fakeGateway{}, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ignored")

	ctx, rec = webhookCtx(e, `{"type":"payment"}`, nil)
	require.NoError(t, WebhookHandler(nil, nil, &fakeGateway{}, "")(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ctx, rec = webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(nil, nil, &fakeGateway{payErr: errors.New("timeout")}, "")(ctx))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	gw := &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "in_process", ExternalReference: "31"}}
	ctx, rec = webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(nil, nil, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pending")

	gw = &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "approved", ExternalReference: "abc"}}
	ctx, rec = webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(nil, nil, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ignored")

	_, db, _ := setupWebhook(t, nil, model.PagoPending)
	gw = &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "approved", ExternalReference: "31"}}
	ctx, rec = webhookCtx(e, paymentBody, nil)
	require.NoError(t, WebhookHandler(db, nil, gw, "")(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ignored")
}

func TestWebhookQueryStringAndSignature(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	pago := &model.Pago{ID: 31, UserID: 7, Tipo: model.PagoCurso, ReferenciaID: 3}
	_, db, fc := setupWebhook(t, pago, model.PagoPending)
	gw := &fakeGateway{pay: &payment.Payment{ID: "pay-99", Status: "approved", ExternalReference: "31"}}

	headers := map[string]string{
		headerSignature: "ts=1700000000,v1=00",
		headerRequestID: "req-1",
	}
	ctx, rec := webhookCtx(e, paymentBody, headers)
	require.NoError(t, WebhookHandler(db, fc, gw, "s3cret")(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	headers[headerSignature] = payment.Sign("s3cret", "req-1", "pay-99", "1700000000")
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook?type=payment&data.id=pay-99", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec = httptest.NewRecorder()
	require.NoError(t, WebhookHandler(db, fc, gw, "s3cret")(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), model.PagoApproved)
}
