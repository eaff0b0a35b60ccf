package dashboard

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	revenueMonths = 12
	recentUploads = 5
)

var (
	dashboardTotals = store.DashboardTotals
	monthlyRevenue  = store.MonthlyRevenue
	listUploads     = store.ListUploads
)

// Handler 儀表板彙總；先讀 Redis，miss 時查詢並寫回
// 快取讀寫失敗只記錄，不影響回應
// @Summary     Dashboard summary
// @Description 總數、近 12 個月收入與最近上傳，快取於 Redis
// @Tags        dashboard
// @Produce     json
// @Success     200 {object} dto.DashboardResponse
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /dashboard [get]
func Handler(db database.DB, rdb cache.Cache, ttl time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cached, err := rdb.Get(ctx, cache.DashboardKey).Result()
		switch {
		case err == nil:
			var resp dto.DashboardResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSON(http.StatusOK, resp)
			}
			log.Printf("儀表板快取內容無效: %v", err)
		case !errors.Is(err, redis.Nil):
			log.Printf("讀取儀表板快取失敗: %v", err)
		}

		totals, err := dashboardTotals(ctx, db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		revenue, err := monthlyRevenue(ctx, db, revenueMonths)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		uploads, err := listUploads(ctx, db, recentUploads)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		resp := dto.DashboardResponse{
			Totales:         *totals,
			IngresosMensual: revenue,
			UltimasCargas:   uploads,
		}

		if b, err := json.Marshal(resp); err == nil {
			if err := rdb.Set(ctx, cache.DashboardKey, b, ttl).Err(); err != nil {
				log.Printf("寫入儀表板快取失敗: %v", err)
			}
		}
		c.Response().Header().Set("X-Cache", "MISS")
		return c.JSON(http.StatusOK, resp)
	}
}
