package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/mailer"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/service"
	"nutriadmin/internal/store"
	"nutriadmin/internal/worker"

	"github.com/labstack/echo/v4"
)

var (
	getUserByEmail       = store.GetUserByEmail
	getUserByID          = store.GetUserByID
	createUser           = store.CreateUser
	updateUserPassword   = store.UpdateUserPassword
	createResetToken     = store.CreateResetToken
	getResetToken        = store.GetResetToken
	markResetTokenUsed   = store.MarkResetTokenUsed
	hashPassword         = service.HashPassword
	authenticateUser     = service.AuthenticateUser
	issueAccessToken     = service.IssueAccessToken
	issueRefreshToken    = service.IssueRefreshToken
	validateRefreshToken = service.ValidateRefreshToken
	revokeRefreshToken   = service.RevokeRefreshToken
	newResetToken        = service.NewResetToken
	checkResetToken      = service.CheckResetToken
	withTx               = database.WithTx
	timeNow              = time.Now
)

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// issueTokens 發行 access token 與 refresh token
func issueTokens(ctx context.Context, c cache.Cache, u *model.User) (*dto.LoginResponse, error) {
	access, err := issueAccessToken(*u, service.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := issueRefreshToken(ctx, c, u.ID, u.Role, service.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresAt:    timeNow().Add(service.AccessTokenTTL),
		RefreshToken: refresh,
		User:         dto.NewUserResponse(u),
	}, nil
}

// RegisterHandler 公開註冊，角色固定為 cliente
// @Summary     Register
// @Description 建立 cliente 帳號 (Email 會自動轉小寫)
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     dto.RegisterRequest true "註冊資料"
// @Success     201  {object} dto.UserResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     409  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /auth/register [post]
func RegisterHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.RegisterRequest
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
			Email:        normalizeEmail(req.Email),
			PasswordHash: hash,
			Role:         model.RoleCliente,
		})
		if err != nil {
			if database.IsUniqueViolation(err) {
				return c.JSON(http.StatusConflict, dto.HTTPError{Message: "email already registered"})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusCreated, dto.NewUserResponse(user))
	}
}

// LoginHandler 使用 Email/Password 驗證並回傳 JWT 與 refresh token
// @Summary     登入使用者
// @Description 驗證 Email 與密碼，停用中的帳號無法登入
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     dto.LoginRequest true "登入資料"
// @Success     200  {object} dto.LoginResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     401  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /auth/login [post]
func LoginHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		user, err := getUserByEmail(ctx, db, normalizeEmail(req.Email))
		if err != nil {
			if database.IsNotFound(err) {
				return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid credentials"})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if err := authenticateUser(ctx, *user, req.Password); err != nil {
			if errors.Is(err, service.ErrUserInactive) {
				return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "user inactive"})
			}
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid credentials"})
		}

		resp, err := issueTokens(ctx, rdb, user)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "failed to issue token"})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// RefreshHandler 以 refresh token 換發新的 token 組 (舊 token 作廢)
// @Summary     Refresh tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     dto.RefreshRequest true "refresh token"
// @Success     200  {object} dto.LoginResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     401  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /auth/refresh [post]
func RefreshHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.RefreshRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		data, err := validateRefreshToken(ctx, rdb, req.RefreshToken)
		if err != nil {
			if errors.Is(err, service.ErrInvalidRefreshToken) {
				return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid refresh token"})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		user, err := getUserByID(ctx, db, data.UserID)
		if err != nil {
			if database.IsNotFound(err) {
				return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid refresh token"})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if !user.Activo {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "user inactive"})
		}

		if err := revokeRefreshToken(ctx, rdb, req.RefreshToken); err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		resp, err := issueTokens(ctx, rdb, user)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "failed to issue token"})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// LogoutHandler 作廢 refresh token
// @Summary     Logout
// @Tags        auth
// @Accept      json
// @Param       body body dto.RefreshRequest true "refresh token"
// @Success     204  "No Content"
// @Failure     400  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /auth/logout [post]
func LogoutHandler(rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.RefreshRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}
		if err := revokeRefreshToken(c.Request().Context(), rdb, req.RefreshToken); err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// MeHandler 取得當前使用者
// @Summary     Current user
// @Tags        auth
// @Produce     json
// @Success     200 {object} dto.UserResponse
// @Failure     401 {object} dto.HTTPError
// @Failure     404 {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /auth/me [get]
func MeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid or missing token"})
		}
		user, err := getUserByID(c.Request().Context(), db, claims.UserID)
		if err != nil {
			if database.IsNotFound(err) {
				return c.JSON(http.StatusNotFound, dto.HTTPError{Message: "user not found"})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, dto.NewUserResponse(user))
	}
}

const forgotPasswordMessage = "si el correo está registrado recibirás un enlace para restablecer la contraseña"

// ForgotPasswordHandler 產生重設 token 並寄送郵件；無論 Email 是否存在都回 200
// @Summary     Forgot password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     dto.ForgotPasswordRequest true "Email"
// @Success     200  {object} dto.MessageResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /auth/forgot-password [post]
func ForgotPasswordHandler(db database.DB, m mailer.Mailer, pool worker.Pool, frontendURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.ForgotPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		user, err := getUserByEmail(ctx, db, normalizeEmail(req.Email))
		if err != nil {
			if database.IsNotFound(err) {
				return c.JSON(http.StatusOK, dto.MessageResponse{Message: forgotPasswordMessage})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if !user.Activo {
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: forgotPasswordMessage})
		}

		token, expiresAt := newResetToken()
		if err := createResetToken(ctx, db, user.ID, token, expiresAt); err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}

		msg := mailer.ResetPasswordMessage(user.Email, user.Name, strings.TrimRight(frontendURL, "/")+"/reset-password?token="+token)
		pool.Submit(func() {
			if err := m.Send(msg); err != nil {
				log.Printf("寄送重設密碼郵件失敗 user=%d: %v", user.ID, err)
			}
		})
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: forgotPasswordMessage})
	}
}

// ResetPasswordHandler 以重設 token 設定新密碼，token 只能使用一次
// @Summary     Reset password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     dto.ResetPasswordRequest true "token 與新密碼"
// @Success     200  {object} dto.MessageResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Router      /auth/reset-password [post]
func ResetPasswordHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.ResetPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		ctx := c.Request().Context()
		tok, err := getResetToken(ctx, db, req.Token)
		if err != nil {
			if database.IsNotFound(err) {
				return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid reset token"})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if err := checkResetToken(tok); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		hash, err := hashPassword(req.NewPassword)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "failed to hash password"})
		}
		err = withTx(ctx, db, func(q database.Querier) error {
			// 並行使用同一 token 時只有一個能標記成功
			if err := markResetTokenUsed(ctx, q, tok.ID); err != nil {
				if database.IsNotFound(err) {
					return service.ErrResetTokenUsed
				}
				return err
			}
			return updateUserPassword(ctx, q, tok.UserID, hash)
		})
		if err != nil {
			if errors.Is(err, service.ErrResetTokenUsed) {
				return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: "contraseña actualizada"})
	}
}

// UpdatePasswordHandler 驗證舊密碼並更新為新密碼
// @Summary     Update own password
// @Tags        auth
// @Accept      json
// @Param       body body dto.UpdatePasswordRequest true "舊密碼與新密碼"
// @Success     204  "No Content"
// @Failure     400  {object} dto.HTTPError
// @Failure     401  {object} dto.HTTPError
// @Failure     500  {object} dto.HTTPError
// @Security    ApiKeyAuth
// @Router      /auth/password [patch]
func UpdatePasswordHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dto.UpdatePasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: err.Error()})
		}

		claims, ok := middleware.Claims(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid or missing token"})
		}
		ctx := c.Request().Context()
		user, err := getUserByID(ctx, db, claims.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		if err := authenticateUser(ctx, *user, req.OldPassword); err != nil {
			return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid current password"})
		}

		hash, err := hashPassword(req.NewPassword)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "failed to hash new password"})
		}
		if err := updateUserPassword(ctx, db, claims.UserID, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: err.Error()})
		}
		return c.NoContent(http.StatusNoContent)
	}
}
