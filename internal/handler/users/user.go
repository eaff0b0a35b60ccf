package users

import (
	"net/http"
	"strings"

	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/service"
	"nutriadmin/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	hashPassword   = service.HashPassword
	listUsers      = store.ListUsers
	createUser     = store.CreateUser
	getUserByID    = store.GetUserByID
	updateUser     = store.UpdateUser
	deactivateUser = store.DeactivateUser
)

func mapStoreError(c echo.Context, err error) error {
	switch {
	case database.IsNotFound(err):
		return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "user not found"})
	case database.IsUniqueViolation(err):
		return c.JSON(http.StatusConflict, dto.HTTPError{Message: "email already registered"})
	}
	return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
}

// ListUsersHandler 列出使用者，可依角色篩選
// @Summary     List users
// @Tags        users
// @Produce     json
// @Param       role query    string false "admin | nutricionista | cliente"
// @Success     200  {array}  dto.UserResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /users [get]
func ListUsersHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		role := c.QueryParam("role")
		if role != "" && !model.ValidRole(role) {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid role"})
		}
		list, err := listUsers(c.Request().Context(), db, role)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		out := make([]dto.UserResponse, 0, len(list))
		for i := range list {
			out = append(out, dto.NewUserResponse(&list[i]))
		}
		return c.JSON(http.StatusOK, out)
	}
}

// CreateUserHandler 管理員建立任意角色的帳號
// @Summary     Create a new user
// @Description 接收使用者資料並建立新帳號 (Email 會自動轉小寫)
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     dto.CreateUserRequest true "使用者資料"
// @Success     201  {object} dto.UserResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /users [post]
func CreateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.CreateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "failed to hash password"})
		}
		user, err := createUser(c.Request().Context(), db, &model.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: hash,
			Role:         req.Role,
		})
		if err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusCreated, dto.NewUserResponse(user))
	}
}

// GetUserHandler 取得指定使用者
// @Summary     Get a user by ID
// @Tags        users
// @Produce     json
// @Param       id  path     int true "使用者 ID"
// @Success     200 {object} dto.UserResponse
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /users/{id} [get]
func GetUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid user ID"})
		}
		user, err := getUserByID(c.Request().Context(), db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// UpdateUserHandler 更新姓名、Email、角色與啟用狀態
// @Summary     Update a user by ID
// @Description activo 未提供時維持原值
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       id   path     int                   true "使用者 ID"
// @Param       body body     dto.UpdateUserRequest true "使用者資料"
// @Success     200  {object} dto.UserResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     404  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /users/{id} [put]
func UpdateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid user ID"})
		}
		var req dto.UpdateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		user, err := getUserByID(ctx, db, id)
		if err != nil {
			return mapStoreError(c, err)
		}
		user.Name = strings.TrimSpace(req.Name)
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
		user.Role = req.Role
		if req.Activo != nil {
			user.Activo = *req.Activo
		}
		if err := updateUser(ctx, db, user); err != nil {
			return mapStoreError(c, err)
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

// DeleteUserHandler 停用使用者 (activo=false)
// @Summary     Deactivate a user
// @Tags        users
// @Param       id  path int true "使用者 ID"
// @Success     204 "No Content"
// @Failure     400 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Failure     500 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /users/{id} [delete]
func DeleteUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := handler.ParamID(c, "id")
		if !ok {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid user ID"})
		}
		if claims, ok := middleware.Claims(c); ok && claims.UserID == id {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "cannot deactivate your own account"})
		}
		if err := deactivateUser(c.Request().Context(), db, id); err != nil {
			return mapStoreError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
