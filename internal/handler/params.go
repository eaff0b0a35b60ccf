package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// ParamID 解析路徑中的正整數 ID
func ParamID(c echo.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// QueryInt 查詢參數轉整數，缺少或格式錯誤時回傳 def
func QueryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
