package cursos

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/storage"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listCursos        = store.ListCursos
	listCursosForUser = store.ListCursosForUser
	getCurso          = store.GetCurso
	createCurso       = store.CreateCurso
	updateCurso       = store.UpdateCurso
	setCursoImagen    = store.SetCursoImagen
	deactivateCurso   = store.DeactivateCurso
	grantCursoAccess  = store.GrantCursoAccess
	revokeCursoAccess = store.RevokeCursoAccess
	listInscritos     = store.ListInscritos
)

var imageTypes = map[string]bool{"image/png": true, "image/jpeg": true, "image/webp": true}

func mapStoreError(c echo.Context, err error, what string) error {
	switch {
	case database.IsNotFound(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: what + " not found"})
	case database.IsForeignKeyViolation(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "user not found"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

func isAdmin(c echo.Context) bool {
	claims, ok := middleware.Claims(c)
	return ok && claims.Role == model.RoleAdmin
}

// ListHandler 啟用中的課程；admin 加上 todos=true 時包含停用的
// @Summary     List cursos
// @Tags        cursos
// @Produce     json
// @Param       todos query    bool false "含停用 (admin)"
// @Success     200   {array}  model.Curso
// @Failure     500   {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos [get]
func ListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		onlyActive := !(isAdmin(c) && c.QueryParam("todos") == "true")
		list, err := listCursos(c.Request().Context(), db, onlyActive)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// MisCursosHandler 目前使用者有存取權的課程
// @Summary     My cursos
// @Tags        cursos
// @Produce     json
// @Success     200 {array}  model.Curso
// @Failure     401 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/mis-cursos [get]
func MisCursosHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "unauthorized"})
		}
		list, err := listCursosForUser(c.Request().Context(), db, claims.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// GetHandler 停用的課程只有 admin 看得到
// @Summary     Get curso
// @Tags        cursos
// @Produce     json
// @Param       id  path     int true "curso ID"
// @Success     200 {object} model.Curso
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id} [get]
func GetHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		curso, err := getCurso(c.Request().Context(), db, id)
		if err != nil {
			return mapStoreError(c, err, "curso")
		}
		if !curso.Activo && !isAdmin(c) {
			return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "curso not found"})
		}
		return c.JSON(http.StatusOK, curso)
	}
}

// CreateHandler 新增課程
// @Summary     Create curso
// @Tags        cursos
// @Accept      json
// @Produce     json
// @Param       body body     dto.CursoRequest true "課程"
// @Success     201  {object} model.Curso
// @Failure     400  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos [post]
func CreateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.CursoRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		curso, err := createCurso(c.Request().Context(), db, &model.Curso{
			Titulo:      strings.TrimSpace(req.Titulo),
			Descripcion: req.Descripcion,
			Precio:      req.Precio,
			Activo:      req.Activo == nil || *req.Activo,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusCreated, curso)
	}
}

// UpdateHandler 更新課程資料，未帶 activo 時維持原值
// @Summary     Update curso
// @Tags        cursos
// @Accept      json
// @Produce     json
// @Param       id   path     int              true "curso ID"
// @Param       body body     dto.CursoRequest true "課程"
// @Success     200  {object} model.Curso
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id} [put]
func UpdateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		var req dto.CursoRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		ctx := c.Request().Context()
		curso, err := getCurso(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err, "curso")
		}
		curso.Titulo = strings.TrimSpace(req.Titulo)
		curso.Descripcion = req.Descripcion
		curso.Precio = req.Precio
		if req.Activo != nil {
			curso.Activo = *req.Activo
		}
		if err := updateCurso(ctx, db, curso); err != nil {
			return mapStoreError(c, err, "curso")
		}
		return c.JSON(http.StatusOK, curso)
	}
}

// DeleteHandler 停用課程
// @Summary     Delete curso
// @Tags        cursos
// @Param       id  path int true "curso ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id} [delete]
func DeleteHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		if err := deactivateCurso(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err, "curso")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// ImagenHandler 上傳課程封面到物件儲存並記錄 URL
// @Summary     Upload curso image
// @Tags        cursos
// @Accept      multipart/form-data
// @Produce     json
// @Param       id     path     int  true "curso ID"
// @Param       imagen formData file true "png / jpeg / webp"
// @Success     200    {object} model.Curso
// @Failure     400    {object} dto.HTTPError
// @Failure     404    {object} dto.HTTPError
// @Failure     413    {object} dto.HTTPError
// @Failure     503    {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id}/imagen [post]
func ImagenHandler(db database.DB, st storage.Storage, maxBytes int64) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		fh, err := c.FormFile("imagen")
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "imagen is required"})
		}
		if fh.Size > maxBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, dto.HTTPError{Message: "file too large"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "cannot read file"})
		}
		defer f.Close()
		content, err := io.ReadAll(io.LimitReader(f, maxBytes))
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "cannot read file"})
		}
		contentType := http.DetectContentType(content)
		if !imageTypes[contentType] {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "unsupported image type"})
		}

		ctx := c.Request().Context()
		curso, err := getCurso(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err, "curso")
		}
		url, err := st.Put(ctx, storage.ObjectKey("cursos", fh.Filename), contentType, bytes.NewReader(content))
		if errors.Is(err, storage.ErrDisabled) {
			return c.JSON(http.StatusServiceUnavailable, dto.HTTPError{Message: err.Error()})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if err := setCursoImagen(ctx, db, id, url); err != nil {
			return mapStoreError(c, err, "curso")
		}
		curso.ImagenURL = &url
		return c.JSON(http.StatusOK, curso)
	}
}

// GrantAccessHandler 給使用者課程存取權，已有時回傳 200
// @Summary     Grant curso access
// @Tags        cursos
// @Accept      json
// @Produce     json
// @Param       id   path     int                    true "curso ID"
// @Param       body body     dto.GrantAccessRequest true "使用者"
// @Success     200  {object} dto.MessageResponse
// @Success     201  {object} dto.MessageResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id}/acceso [post]
func GrantAccessHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		var req dto.GrantAccessRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		ctx := c.Request().Context()
		if _, err := getCurso(ctx, db, id); err != nil {
			return mapStoreError(c, err, "curso")
		}
		var grantedBy *int
		if claims, ok := middleware.Claims(c); ok {
			grantedBy = &claims.UserID
		}
		created, err := grantCursoAccess(ctx, db, req.UserID, id, grantedBy)
		if err != nil {
			return mapStoreError(c, err, "curso")
		}
		if !created {
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: "access already granted"})
		}
		return c.JSON(http.StatusCreated, dto.MessageResponse{Message: "access granted"})
	}
}

// RevokeAccessHandler 移除存取權
// @Summary     Revoke curso access
// @Tags        cursos
// @Param       id      path int true "curso ID"
// @Param       user_id path int true "user ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id}/acceso/{user_id} [delete]
func RevokeAccessHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		userID, ok := handler.ParamID(c, "user_id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid user ID"})
		}
		if err := revokeCursoAccess(c.Request().Context(), db, userID, id); err != nil {
			return mapStoreError(c, err, "access")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// InscritosHandler 有存取權的使用者
// @Summary     List inscritos
// @Tags        cursos
// @Produce     json
// @Param       id  path     int true "curso ID"
// @Success     200 {array}  model.Inscrito
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /cursos/{id}/inscritos [get]
func InscritosHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid curso ID"})
		}
		ctx := c.Request().Context()
		if _, err := getCurso(ctx, db, id); err != nil {
			return mapStoreError(c, err, "curso")
		}
		list, err := listInscritos(ctx, db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}
