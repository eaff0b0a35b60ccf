package service

import (
	"errors"
	"strings"
	"time"

	"nutriadmin/internal/model"

	"github.com/google/uuid"
)

const ResetTokenTTL = time.Hour

var (
	ErrResetTokenUsed    = errors.New("reset token already used")
	ErrResetTokenExpired = errors.New("reset token expired")
)

var newUUID = uuid.NewString

// NewResetToken 產生密碼重設用 token 與到期時間
func NewResetToken() (string, time.Time) {
	token := strings.ReplaceAll(newUUID(), "-", "") + strings.ReplaceAll(newUUID(), "-", "")
	return token, timeNow().Add(ResetTokenTTL)
}

// CheckResetToken token 未使用且未過期時回傳 nil
func CheckResetToken(t *model.PasswordResetToken) error {
	if t.Used {
		return ErrResetTokenUsed
	}
	if !timeNow().Before(t.ExpiresAt) {
		return ErrResetTokenExpired
	}
	return nil
}
