package documentos

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"
	"nutriadmin/internal/thumbnail"
	"nutriadmin/internal/worker"

	"github.com/labstack/echo/v4"
)

const thumbnailTimeout = 30 * time.Second

var (
	createDocumento       = store.CreateDocumento
	listDocumentos        = store.ListDocumentos
	getDocumento          = store.GetDocumento
	getDocumentoContenido = store.GetDocumentoContenido
	getDocumentoThumbnail = store.GetDocumentoThumbnail
	setDocumentoThumbnail = store.SetDocumentoThumbnail
	updateDocumento       = store.UpdateDocumento
	deactivateDocumento   = store.DeactivateDocumento
	generateThumbnail     = thumbnail.Generate
)

var allowedTypes = map[string]bool{"application/pdf": true, "image/png": true, "image/jpeg": true}

func mapStoreError(c echo.Context, err error) error {
	if database.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "documento not found"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

func parseFecha(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// thumbnailTask 在背景產生縮圖並寫回資料庫
func thumbnailTask(db database.DB, id int, contentType string, content []byte) worker.Task {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), thumbnailTimeout)
		defer cancel()
		thumb, err := generateThumbnail(contentType, content)
		if err != nil {
			log.Printf("documento %d 縮圖產生失敗: %v", id, err)
			return
		}
		if err := setDocumentoThumbnail(ctx, db, id, thumb); err != nil {
			log.Printf("documento %d 縮圖寫入失敗: %v", id, err)
		}
	}
}

// CreateHandler 上傳活動文件 (pdf / png / jpeg)，縮圖於背景產生
// @Summary     Upload documento
// @Tags        documentos
// @Accept      multipart/form-data
// @Produce     json
// @Param       archivo      formData file   true  "pdf / png / jpeg"
// @Param       titulo       formData string true  "標題"
// @Param       descripcion  formData string false "描述"
// @Param       fecha_evento formData string false "YYYY-MM-DD"
// @Success     201          {object} model.Documento
// @Failure     400          {object} dto.HTTPError
// @Failure     413          {object} dto.HTTPError
// @Failure     500          {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /documentos [post]
func CreateHandler(db database.DB, pool worker.Pool, maxBytes int64) echo.HandlerFunc {
	return func(c echo.Context) error {
		titulo := strings.TrimSpace(c.FormValue("titulo"))
		if titulo == "" {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "titulo is required"})
		}
		fecha, ok := parseFecha(c.FormValue("fecha_evento"))
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid fecha_evento"})
		}
		fh, err := c.FormFile("archivo")
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "archivo is required"})
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
		if len(content) == 0 {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "empty file"})
		}
		mimeType := http.DetectContentType(content)
		if !allowedTypes[mimeType] {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "only pdf, png and jpeg files are accepted"})
		}

		d := &model.Documento{
			Titulo:        titulo,
			Descripcion:   strings.TrimSpace(c.FormValue("descripcion")),
			FechaEvento:   fecha,
			NombreArchivo: filepath.Base(fh.Filename),
			MimeType:      mimeType,
			Tamano:        len(content),
			Contenido:     content,
		}
		if claims, ok := middleware.Claims(c); ok {
			d.SubidoPor = &claims.UserID
		}
		d, err = createDocumento(c.Request().Context(), db, d)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		pool.Submit(thumbnailTask(db, d.ID, mimeType, content))
		return c.JSON(http.StatusCreated, d)
	}
}

// ListHandler 文件清單 (不含內容)
// @Summary     List documentos
// @Tags        documentos
// @Produce     json
// @Success     200 {array}  model.Documento
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /documentos [get]
func ListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := listDocumentos(c.Request().Context(), db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// ArchivoHandler 下載原始檔
// @Summary     Download documento
// @Tags        documentos
// @Produce     application/octet-stream
// @Param       id  path int true "documento ID"
// @Success     200 {file} file
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /documentos/{id}/archivo [get]
func ArchivoHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid documento ID"})
		}
		d, err := getDocumentoContenido(c.Request().Context(), db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", d.NombreArchivo))
		return c.Blob(http.StatusOK, d.MimeType, d.Contenido)
	}
}

// ThumbnailHandler 縮圖尚未產生時回傳 404
// @Summary     Documento thumbnail
// @Tags        documentos
// @Produce     image/jpeg
// @Param       id  path int true "documento ID"
// @Success     200 {file} file
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /documentos/{id}/thumbnail [get]
func ThumbnailHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid documento ID"})
		}
		thumb, err := getDocumentoThumbnail(c.Request().Context(), db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		if len(thumb) == 0 {
			return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "thumbnail not ready"})
		}
		c.Response().Header().Set("Cache-Control", "max-age=86400")
		return c.Blob(http.StatusOK, "image/jpeg", thumb)
	}
}

// UpdateHandler 只更新中繼資料
// @Summary     Update documento
// @Tags        documentos
// @Accept      json
// @Produce     json
// @Param       id   path     int                        true "documento ID"
// @Param       body body     dto.UpdateDocumentoRequest true "中繼資料"
// @Success     200  {object} model.Documento
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /documentos/{id} [put]
func UpdateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid documento ID"})
		}
		var req dto.UpdateDocumentoRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		fecha, ok := parseFecha(req.FechaEvento)
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid fecha_evento"})
		}

		ctx := c.Request().Context()
		d, err := getDocumento(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		d.Titulo = strings.TrimSpace(req.Titulo)
		d.Descripcion = strings.TrimSpace(req.Descripcion)
		d.FechaEvento = fecha
		if err := updateDocumento(ctx, db, d); err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusOK, d)
	}
}

// DeleteHandler 停用文件
// @Summary     Delete documento
// @Tags        documentos
// @Param       id  path int true "documento ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /documentos/{id} [delete]
func DeleteHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid documento ID"})
		}
		if err := deactivateDocumento(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
