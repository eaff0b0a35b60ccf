package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutriadmin/internal/cache"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "refresh_token:"

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

var (
	randRead      = rand.Read
	jsonMarshal   = json.Marshal
	jsonUnmarshal = json.Unmarshal
)

// RefreshTokenData 存在 Redis 的 refresh token 內容
type RefreshTokenData struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// IssueRefreshToken 產生 32 bytes 隨機 token 並存入 Redis
func IssueRefreshToken(ctx context.Context, c cache.Cache, userID int, role string, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("IssueRefreshToken: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	data, err := jsonMarshal(RefreshTokenData{UserID: userID, Role: role})
	if err != nil {
		return "", fmt.Errorf("IssueRefreshToken: %w", err)
	}
	if err := c.Set(ctx, refreshKeyPrefix+token, data, ttl).Err(); err != nil {
		return "", fmt.Errorf("IssueRefreshToken: %w", err)
	}
	return token, nil
}

// ValidateRefreshToken 讀取 token 內容，不存在或過期回傳 ErrInvalidRefreshToken
func ValidateRefreshToken(ctx context.Context, c cache.Cache, token string) (*RefreshTokenData, error) {
	val, err := c.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("ValidateRefreshToken: %w", err)
	}
	var data RefreshTokenData
	if err := jsonUnmarshal([]byte(val), &data); err != nil {
		return nil, fmt.Errorf("ValidateRefreshToken: %w", err)
	}
	return &data, nil
}

// RevokeRefreshToken 登出時刪除
func RevokeRefreshToken(ctx context.Context, c cache.Cache, token string) error {
	if err := c.Del(ctx, refreshKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("RevokeRefreshToken: %w", err)
	}
	return nil
}
