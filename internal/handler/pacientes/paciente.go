package pacientes

import (
	"net/http"
	"strings"
	"time"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/model"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listPacientes          = store.ListPacientes
	getPaciente            = store.GetPaciente
	createPaciente         = store.CreatePaciente
	updatePaciente         = store.UpdatePaciente
	deactivatePaciente     = store.DeactivatePaciente
	listInformesByPaciente = store.ListInformesByPaciente
)

func mapStoreError(c echo.Context, err error) error {
	switch {
	case database.IsNotFound(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "paciente not found"})
	case database.IsForeignKeyViolation(err):
		return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "plantel not found"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

// applyRequest 將請求內容套用到病患，日期已由 validator 檢查格式
func applyRequest(p *model.Paciente, req dto.PacienteRequest) {
	p.Nombre = strings.Join(strings.Fields(req.Nombre), " ")
	p.FechaNacimiento = nil
	if req.FechaNacimiento != "" {
		if d, err := time.Parse("2006-01-02", req.FechaNacimiento); err == nil {
			p.FechaNacimiento = &d
		}
	}
	p.Sexo = nil
	if req.Sexo != "" {
		sexo := req.Sexo
		p.Sexo = &sexo
	}
	p.PlantelID = req.PlantelID
	if req.Activo != nil {
		p.Activo = *req.Activo
	}
}

// ListHandler 分頁列出啟用中的病患
// @Summary     List pacientes
// @Tags        pacientes
// @Produce     json
// @Param       q          query    string false "姓名關鍵字"
// @Param       plantel_id query    int    false "plantel"
// @Param       page       query    int    false "頁碼 (1 起)"
// @Param       limit      query    int    false "每頁筆數 (最多 100)"
// @Success     200        {object} dto.PacienteListResponse
// @Failure     500        {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /pacientes [get]
func ListHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := handler.QueryInt(c, "page", 1)
		if page < 1 {
			page = 1
		}
		if page > dto.MaxPage {
			page = dto.MaxPage
		}
		limit := handler.QueryInt(c, "limit", dto.DefaultPageLimit)
		if limit < 1 {
			limit = dto.DefaultPageLimit
		}
		if limit > dto.MaxPageLimit {
			limit = dto.MaxPageLimit
		}

		list, total, err := listPacientes(c.Request().Context(), db, model.PacienteFilter{
			Query:     strings.TrimSpace(c.QueryParam("q")),
			PlantelID: handler.QueryInt(c, "plantel_id", 0),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, dto.PacienteListResponse{
			Data: list,
			Meta: dto.NewPaginationMeta(page, limit, total),
		})
	}
}

// CreateHandler 新增病患
// @Summary     Create paciente
// @Tags        pacientes
// @Accept      json
// @Produce     json
// @Param       body body     dto.PacienteRequest true "病患資料"
// @Success     201  {object} model.Paciente
// @Failure     400  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /pacientes [post]
func CreateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.PacienteRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		p := &model.Paciente{}
		applyRequest(p, req)
		p, err := createPaciente(c.Request().Context(), db, p)
		if err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusCreated, p)
	}
}

// GetHandler 取得病患
// @Summary     Get paciente
// @Tags        pacientes
// @Produce     json
// @Param       id  path     int true "病患 ID"
// @Success     200 {object} model.Paciente
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /pacientes/{id} [get]
func GetHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid paciente ID"})
		}
		p, err := getPaciente(c.Request().Context(), db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

// UpdateHandler 更新病患資料
// @Summary     Update paciente
// @Tags        pacientes
// @Accept      json
// @Produce     json
// @Param       id   path     int                 true "病患 ID"
// @Param       body body     dto.PacienteRequest true "病患資料"
// @Success     200  {object} model.Paciente
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /pacientes/{id} [put]
func UpdateHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid paciente ID"})
		}
		var req dto.PacienteRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		p, err := getPaciente(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		applyRequest(p, req)
		if err := updatePaciente(ctx, db, p); err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusOK, p)
	}
}

// DeleteHandler 停用病患，量測紀錄保留
// @Summary     Deactivate paciente
// @Tags        pacientes
// @Param       id  path int true "病患 ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /pacientes/{id} [delete]
func DeleteHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid paciente ID"})
		}
		if err := deactivatePaciente(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// InformesHandler 病患的量測歷史 (依日期排序)
// @Summary     Paciente history
// @Tags        pacientes
// @Produce     json
// @Param       id  path     int true "病患 ID"
// @Success     200 {array}  model.Informe
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /pacientes/{id}/informes [get]
func InformesHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid paciente ID"})
		}
		ctx := c.Request().Context()
		if _, err := getPaciente(ctx, db, id); err != nil {
			return mapStoreError(c, err)
		}
		list, err := listInformesByPaciente(ctx, db, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}
