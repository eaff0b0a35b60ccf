package excel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/ingest"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/spreadsheet"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	templateName    = "plantilla_antropometria.xlsx"
	uploadsLimit    = 50
)

var (
	listUploads   = store.ListUploads
	writeTemplate = spreadsheet.WriteTemplate
)

// Uploader 執行匯入流程，由 *ingest.Service 實作
type Uploader interface {
	Upload(ctx context.Context, in ingest.UploadInput) (*ingest.UploadResult, error)
}

func formInt(c echo.Context, name string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(c.FormValue(name)))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func mapUploadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ingest.ErrDuplicateFile):
		return c.JSON(http.StatusConflict, dto.HTTPError{Message: err.Error()})
	case errors.Is(err, ingest.ErrInvalidCatalog),
		errors.Is(err, ingest.ErrEmptyFile),
		spreadsheet.IsStructureError(err):
		return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
	}
	log.Printf("Excel 匯入失敗: %v", err)
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "error al procesar el archivo"})
}

// UploadHandler 上傳量測試算表
// @Summary     Upload anthropometric spreadsheet
// @Description 檢查目錄與重複檔案後，解析 .xlsx 並寫入量測 session
// @Tags        excel
// @Accept      multipart/form-data
// @Produce     json
// @Param       file         formData file   true  ".xlsx"
// @Param       plantel_id   formData int    true  "plantel"
// @Param       categoria_id formData int    true  "categoría"
// @Param       liga_id      formData int    true  "liga"
// @Param       fecha_sesion formData string false "YYYY-MM-DD，預設今天"
// @Success     201          {object} dto.UploadResponse
// @Failure     400          {object} dto.HTTPError
// @Failure     409          {object} dto.HTTPError
// @Failure     413          {object} dto.HTTPError
// @Failure     500          {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /excel/upload [post]
func UploadHandler(svc Uploader, maxBytes int64) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "file is required"})
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "only .xlsx files are accepted"})
		}
		if fh.Size > maxBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, dto.HTTPError{Message: "file too large"})
		}

		in := ingest.UploadInput{NombreArchivo: filepath.Base(fh.Filename)}
		var ok bool
		if in.PlantelID, ok = formInt(c, "plantel_id"); !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid plantel_id"})
		}
		if in.CategoriaID, ok = formInt(c, "categoria_id"); !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid categoria_id"})
		}
		if in.LigaID, ok = formInt(c, "liga_id"); !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid liga_id"})
		}
		in.FechaSesion = time.Now().UTC().Truncate(24 * time.Hour)
		if raw := strings.TrimSpace(c.FormValue("fecha_sesion")); raw != "" {
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid fecha_sesion"})
			}
			in.FechaSesion = d
		}
		if claims, ok := middleware.Claims(c); ok {
			uid := claims.UserID
			in.UserID = &uid
		}

		f, err := fh.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "cannot read file"})
		}
		defer f.Close()
		in.Content, err = io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "cannot read file"})
		}
		if int64(len(in.Content)) > maxBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, dto.HTTPError{Message: "file too large"})
		}

		res, err := svc.Upload(c.Request().Context(), in)
		if err != nil {
			return mapUploadError(c, err)
		}
		return c.JSON(http.StatusCreated, dto.UploadResponse{
			Message:             "archivo procesado",
			UploadID:            res.UploadID,
			SesionID:            res.SesionID,
			TotalFilas:          res.TotalFilas,
			RegistrosInsertados: res.RegistrosInsertados,
			RegistrosDuplicados: res.RegistrosDuplicados,
			PacientesCreados:    res.PacientesCreados,
		})
	}
}

// ListUploadsHandler 最近的上傳紀錄
// @Summary     List uploads
// @Tags        excel
// @Produce     json
// @Param       limit query    int false "最多幾筆 (預設 50)"
// @Success     200   {array}  model.Upload
// @Failure     500   {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /excel/uploads [get]
func ListUploadsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := handler.QueryInt(c, "limit", uploadsLimit)
		if limit <= 0 || limit > dto.MaxPageLimit {
			limit = uploadsLimit
		}
		list, err := listUploads(c.Request().Context(), db, limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

// TemplateHandler 下載可辨識欄位的空白範本
// @Summary     Download spreadsheet template
// @Tags        excel
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success     200 {file} file
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /excel/template [get]
func TemplateHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var buf bytes.Buffer
		if err := writeTemplate(&buf); err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+templateName+`"`)
		return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
