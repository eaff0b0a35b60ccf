package cursos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutriadmin/internal/database"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/service"
	"nutriadmin/internal/storage"
	"nutriadmin/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000IHDR")

type stubValidator struct{ err error }

func (s *stubValidator) Validate(i interface{}) error { return s.err }

type fakeStorage struct {
	key, contentType string
	data             []byte
	err              error
}

func (f *fakeStorage) Put(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.contentType = key, contentType
	f.data, _ = io.ReadAll(r)
	return "https://cdn.test/" + key, nil
}

func restore() {
	listCursos = store.ListCursos
	listCursosForUser = store.ListCursosForUser
	getCurso = store.GetCurso
	createCurso = store.CreateCurso
	updateCurso = store.UpdateCurso
	setCursoImagen = store.SetCursoImagen
	deactivateCurso = store.DeactivateCurso
	grantCursoAccess = store.GrantCursoAccess
	revokeCursoAccess = store.RevokeCursoAccess
	listInscritos = store.ListInscritos
}

func newCtx(e *echo.Echo, method, body string, role string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 1, Role: role})
	}
	if len(params) > 0 {
		var names, values []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func stubGet(activo bool) {
	getCurso = func(_ context.Context, _ database.Querier, id int) (*model.Curso, error) {
		if id == 404 {
			return nil, fmt.Errorf("GetCurso: %w", pgx.ErrNoRows)
		}
		return &model.Curso{ID: id, Titulo: "Nutrición I", Precio: 100, Activo: activo}, nil
	}
}

func TestListHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	var onlyActive bool
	listCursos = func(_ context.Context, _ database.Querier, only bool) ([]model.Curso, error) {
		onlyActive = only
		return []model.Curso{}, nil
	}

	ctx, rec := newCtx(e, http.MethodGet, "", model.RoleCliente)
	ctx.QueryParams().Set("todos", "true")
	require.NoError(t, ListHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, onlyActive)

	req := httptest.NewRequest(http.MethodGet, "/cursos?todos=true", nil)
	rec = httptest.NewRecorder()
	ctx = e.NewContext(req, rec)
	ctx.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 1, Role: model.RoleAdmin})
	require.NoError(t, ListHandler(nil)(ctx))
	require.False(t, onlyActive)
}

func TestMisCursosHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	listCursosForUser = func(_ context.Context, _ database.Querier, userID int) ([]model.Curso, error) {
		require.Equal(t, 1, userID)
		return []model.Curso{{ID: 3}}, nil
	}
	ctx, rec := newCtx(e, http.MethodGet, "", model.RoleCliente)
	require.NoError(t, MisCursosHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, rec = newCtx(e, http.MethodGet, "", "")
	require.NoError(t, MisCursosHandler(nil)(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetHandlerHidesInactive(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	stubGet(false)

	ctx, rec := newCtx(e, http.MethodGet, "", model.RoleCliente, "id", "2")
	require.NoError(t, GetHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)

	ctx, rec = newCtx(e, http.MethodGet, "", model.RoleAdmin, "id", "2")
	require.NoError(t, GetHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, rec = newCtx(e, http.MethodGet, "", model.RoleAdmin, "id", "404")
	require.NoError(t, GetHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndUpdateHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	e.Validator = &stubValidator{}
	stubGet(true)

	createCurso = func(_ context.Context, _ database.Querier, c *model.Curso) (*model.Curso, error) {
		require.Equal(t, "Curso A", c.Titulo)
		require.True(t, c.Activo)
		c.ID = 8
		return c, nil
	}
	ctx, rec := newCtx(e, http.MethodPost, `{"titulo":" Curso A ","precio":2500}`, model.RoleAdmin)
	require.NoError(t, CreateHandler(nil)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)

	var saved *model.Curso
	updateCurso = func(_ context.Context, _ database.Querier, c *model.Curso) error {
		saved = c
		return nil
	}
	ctx, rec = newCtx(e, http.MethodPut, `{"titulo":"Curso B","precio":10,"activo":false}`, model.RoleAdmin, "id", "5")
	require.NoError(t, UpdateHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Curso B", saved.Titulo)
	require.False(t, saved.Activo)

	// 未帶 activo 維持原值
	ctx, rec = newCtx(e, http.MethodPut, `{"titulo":"Curso C","precio":10}`, model.RoleAdmin, "id", "5")
	require.NoError(t, UpdateHandler(nil)(ctx))
	require.True(t, saved.Activo)

	e.Validator = &stubValidator{err: errors.New("titulo required")}
	ctx, rec = newCtx(e, http.MethodPost, `{}`, model.RoleAdmin)
	require.NoError(t, CreateHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	deactivateCurso = func(_ context.Context, _ database.Querier, id int) error {
		if id == 404 {
			return fmt.Errorf("DeactivateCurso: %w", pgx.ErrNoRows)
		}
		return nil
	}
	ctx, rec := newCtx(e, http.MethodDelete, "", model.RoleAdmin, "id", "1")
	require.NoError(t, DeleteHandler(nil)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx, rec = newCtx(e, http.MethodDelete, "", model.RoleAdmin, "id", "404")
	require.NoError(t, DeleteHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func imagenCtx(t *testing.T, e *echo.Echo, filename string, content []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("imagen", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/cursos/3/imagen", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	return c, rec
}

func TestImagenHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	stubGet(true)
	var storedURL string
	setCursoImagen = func(_ context.Context, _ database.Querier, id int, url string) error {
		require.Equal(t, 3, id)
		storedURL = url
		return nil
	}

	st := &fakeStorage{}
	ctx, rec := imagenCtx(t, e, "Portada.PNG", pngHeader)
	require.NoError(t, ImagenHandler(nil, st, 1024)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", st.contentType)
	require.True(t, strings.HasPrefix(st.key, "cursos/"))
	require.True(t, strings.HasSuffix(st.key, ".png"))
	require.Equal(t, pngHeader, st.data)
	require.Equal(t, "https://cdn.test/"+st.key, storedURL)
	require.Contains(t, rec.Body.String(), storedURL)

	ctx, rec = imagenCtx(t, e, "notas.txt", []byte("hola mundo"))
	require.NoError(t, ImagenHandler(nil, st, 1024)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ctx, rec = imagenCtx(t, e, "a.png", pngHeader)
	require.NoError(t, ImagenHandler(nil, st, 4)(ctx))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	ctx, rec = imagenCtx(t, e, "a.png", pngHeader)
	require.NoError(t, ImagenHandler(nil, storage.Disabled{}, 1024)(ctx))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGrantAccessHandler(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	e.Validator = &stubValidator{}
	stubGet(true)

	calls := 0
	grantCursoAccess = func(_ context.Context, _ database.Querier, userID, cursoID int, grantedBy *int) (bool, error) {
		calls++
		require.Equal(t, 7, userID)
		require.Equal(t, 3, cursoID)
		require.Equal(t, 1, *grantedBy)
		return calls == 1, nil
	}

	ctx, rec := newCtx(e, http.MethodPost, `{"user_id":7}`, model.RoleAdmin, "id", "3")
	require.NoError(t, GrantAccessHandler(nil)(ctx))
	require.Equal(t, http.StatusCreated, rec.Code)

	ctx, rec = newCtx(e, http.MethodPost, `{"user_id":7}`, model.RoleAdmin, "id", "3")
	require.NoError(t, GrantAccessHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	grantCursoAccess = func(context.Context, database.Querier, int, int, *int) (bool, error) {
		return false, fmt.Errorf("GrantCursoAccess: %w", &pgconn.PgError{Code: "23503"})
	}
	ctx, rec = newCtx(e, http.MethodPost, `{"user_id":99}`, model.RoleAdmin, "id", "3")
	require.NoError(t, GrantAccessHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "user not found")

	ctx, rec = newCtx(e, http.MethodPost, `{"user_id":7}`, model.RoleAdmin, "id", "404")
	require.NoError(t, GrantAccessHandler(nil)(ctx))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevokeAndInscritos(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	stubGet(true)
	revokeCursoAccess = func(_ context.Context, _ database.Querier, userID, cursoID int) error {
		require.Equal(t, 7, userID)
		require.Equal(t, 3, cursoID)
		return nil
	}
	listInscritos = func(context.Context, database.Querier, int) ([]model.Inscrito, error) {
		return []model.Inscrito{{UserID: 7, Name: "Ana"}}, nil
	}

	ctx, rec := newCtx(e, http.MethodDelete, "", model.RoleAdmin, "id", "3", "user_id", "7")
	require.NoError(t, RevokeAccessHandler(nil)(ctx))
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx, rec = newCtx(e, http.MethodDelete, "", model.RoleAdmin, "id", "3", "user_id", "x")
	require.NoError(t, RevokeAccessHandler(nil)(ctx))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ctx, rec = newCtx(e, http.MethodGet, "", model.RoleAdmin, "id", "3")
	require.NoError(t, InscritosHandler(nil)(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Ana")
}
