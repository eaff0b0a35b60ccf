package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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
	listCatalog = store.ListCatalog
	createCatalogItem = store.CreateCatalogItem
	updateCatalogItem = store.UpdateCatalogItem
	deactivateCatalogItem = store.DeactivateCatalogItem
}

func TestListHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	var gotKind model.CatalogKind
	var gotActive bool
	listCatalog = func(_ context.Context, _ database.Querier, k model.CatalogKind, onlyActive bool) ([]model.CatalogItem, error) {
		gotKind, gotActive = k, onlyActive
		return []model.CatalogItem{{ID: 1, Nombre: "Sub 15", Activo: true}}, nil
	}
	ctx, rec := newCtx(e, http.MethodGet, "/categorias?activo=true", "", "")
	require.NoError(t, ListHandler(nil, model.Categorias)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.Categorias, gotKind)
	require.True(t, gotActive)
	require.Contains(t, rec.Body.String(), "Sub 15")
}

func TestCreateHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	e.Validator = &stubValidator{}

	createCatalogItem = func(_ context.Context, _ database.Querier, k model.CatalogKind, nombre string) (*model.CatalogItem, error) {
		if nombre == "Liga Norte" {
			return nil, fmt.Errorf("CreateCatalogItem: %w", &pgconn.PgError{Code: "23505"})
		}
		return &model.CatalogItem{ID: 2, Nombre: nombre, Activo: true}, nil
	}

	ctx, rec := newCtx(e, http.MethodPost, "/ligas", "", `{"nombre":" Liga Norte "}`)
	require.NoError(t, CreateHandler(nil, model.Ligas)(ctx))
	require.Equal(t, http.StatusConflict, rec.Code)

	ctx, rec = newCtx(e, http.MethodPost, "/ligas", "", `{"nombre":"Liga Sur"}`)
	require.NoError(t, CreateHandler(nil, model.Ligas)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"nombre":"Liga Sur"`)
}

func TestUpdateAndDeleteHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	e.Validator = &stubValidator{}

	var saved *model.CatalogItem
	updateCatalogItem = func(_ context.Context, _ database.Querier, _ model.CatalogKind, it *model.CatalogItem) error {
		saved = it
		return nil
	}
	ctx, rec := newCtx(e, http.MethodPut, "/planteles/3", "3", `{"nombre":"Primera","activo":false}`)
	require.NoError(t, UpdateHandler(nil, model.Planteles)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, saved.ID)
	require.False(t, saved.Activo)

	ctx, rec = newCtx(e, http.MethodPut, "/planteles/x", "x", `{"nombre":"Primera"}`)
	require.NoError(t, UpdateHandler(nil, model.Planteles)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	deactivateCatalogItem = func(context.Context, database.Querier, model.CatalogKind, int) error {
		return fmt.Errorf("DeactivateCatalogItem: %w", pgx.ErrNoRows)
	}
	ctx, rec = newCtx(e, http.MethodDelete, "/planteles/9", "9", "")
	require.NoError(t, DeleteHandler(nil, model.Planteles)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
