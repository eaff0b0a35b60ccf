package handler

import (
	"context"
	"net/http"
	"time"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 3 * time.Second

// HealthHandler 健康檢查 (公開)
// @Summary     Health Check
// @Description 檢查資料庫與快取連線，任一失敗回傳 503
// @Tags        health
// @Produce     json
// @Success     200 {object} dto.HealthResponse
// @Failure     503 {object} dto.HealthResponse
// @Router      /health [get]
func HealthHandler(db database.DB, c cache.Cache) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
		defer cancel()

		resp := dto.HealthResponse{Status: "ok", Database: "ok", Cache: "ok"}
		if err := db.Ping(reqCtx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unavailable"
		}
		if err := c.Ping(reqCtx).Err(); err != nil {
			resp.Status = "degraded"
			resp.Cache = "unavailable"
		}
		if resp.Status != "ok" {
			return ctx.JSON(http.StatusServiceUnavailable, resp)
		}
		return ctx.JSON(http.StatusOK, resp)
	}
}
