package anthropometric

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{ err error }

func (s *stubValidator) Validate(i interface{}) error { return s.err }

func newCtx(e *echo.Echo, method, target, id, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func restore() {
	listSesiones = store.ListSesiones
	getSesion = store.GetSesion
	deleteSesion = store.DeleteSesion
	listInformesBySesion = store.ListInformesBySesion
	getInforme = store.GetInforme
	updateInforme = store.UpdateInforme
	deleteInforme = store.DeleteInforme
}

func TestListSesionesHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	var got model.SesionFilter
	listSesiones = func(_ context.Context, _ database.Querier, f model.SesionFilter) ([]model.Sesion, error) {
		got = f
		return []model.Sesion{{ID: 1, Plantel: "Primera", TotalInformes: 20}}, nil
	}
	ctx, rec := newCtx(e, http.MethodGet, "/anthropometric/sesiones?plantel_id=1&liga_id=3", "", "")
	require.NoError(t, ListSesionesHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.SesionFilter{PlantelID: 1, LigaID: 3}, got)
	require.Contains(t, rec.Body.String(), `"total_informes":20`)
}

func TestGetSesionHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	getSesion = func(_ context.Context, _ database.Querier, id int) (*model.Sesion, error) {
		if id == 2 {
			return nil, fmt.Errorf("GetSesion: %w", pgx.ErrNoRows)
		}
		return &model.Sesion{ID: id}, nil
	}
	listInformesBySesion = func(_ context.Context, _ database.Querier, id int) ([]model.Informe, error) {
		return []model.Informe{{ID: 7, SesionID: id, PacienteNombre: "Juan"}}, nil
	}

	ctx, rec := newCtx(e, http.MethodGet, "/anthropometric/sesiones/1", "1", "")
	require.NoError(t, GetSesionHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SesionDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Sesion.ID)
	require.Equal(t, "Juan", resp.Informes[0].PacienteNombre)

	ctx, rec = newCtx(e, http.MethodGet, "/anthropometric/sesiones/2", "2", "")
	require.NoError(t, GetSesionHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteHandlers(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	deleteSesion = func(context.Context, database.Querier, int) error { return nil }
	deleteInforme = func(context.Context, database.Querier, int) error {
		return fmt.Errorf("DeleteInforme: %w", pgx.ErrNoRows)
	}

	ctx, rec := newCtx(e, http.MethodDelete, "/anthropometric/sesiones/1", "1", "")
	require.NoError(t, DeleteSesionHandler(nil)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx, rec = newCtx(e, http.MethodDelete, "/anthropometric/informes/1", "1", "")
	require.NoError(t, DeleteInformeHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateInformeRecomputesIMC(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	e.Validator = &stubValidator{}

	old := 99.0
	getInforme = func(_ context.Context, _ database.Querier, id int) (*model.Informe, error) {
		return &model.Informe{
			ID:            id,
			PacienteID:    3,
			FechaMedicion: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Medidas:       model.Medidas{IMC: &old},
		}, nil
	}
	var saved *model.Informe
	updateInforme = func(_ context.Context, _ database.Querier, in *model.Informe) error {
		saved = in
		return nil
	}

	ctx, rec := newCtx(e, http.MethodPut, "/anthropometric/informes/4", "4",
		`{"fecha_medicion":"2025-03-02","peso":70,"talla":175,"imc":10,"pliegue_triceps":8.5}`)
	require.NoError(t, UpdateInformeHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 22.86, *saved.IMC)
	require.Equal(t, 8.5, *saved.PliegueTriceps)
	require.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), saved.FechaMedicion)
	require.Equal(t, 3, saved.PacienteID)

	// 沒有身高時保留提供的 IMC
	ctx, rec = newCtx(e, http.MethodPut, "/anthropometric/informes/4", "4", `{"peso":70,"imc":21.5}`)
	require.NoError(t, UpdateInformeHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 21.5, *saved.IMC)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), saved.FechaMedicion)

	ctx, rec = newCtx(e, http.MethodPut, "/anthropometric/informes/x", "x", `{}`)
	require.NoError(t, UpdateInformeHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
