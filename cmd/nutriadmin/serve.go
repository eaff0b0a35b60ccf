package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/config"
	"nutriadmin/internal/database"
	"nutriadmin/internal/ingest"
	"nutriadmin/internal/mailer"
	"nutriadmin/internal/payment"
	"nutriadmin/internal/router"
	"nutriadmin/internal/storage"
	"nutriadmin/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	_ "nutriadmin/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	loadConfig      = config.Load
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	newB2Storage    = func(ctx context.Context, keyID, appKey, bucket string) (storage.Storage, error) {
		return storage.NewB2(ctx, keyID, appKey, bucket)
	}
	startServer   = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool = worker.NewPool
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "啟動 HTTP 服務 (預設)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

// exportSecret 讓 service 套件從環境變數讀到 config.yaml 內的 JWT 密鑰
func exportSecret(cfg *config.Config) {
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", cfg.JWTSecret)
	}
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if !cfg.SMTPEnabled() {
		log.Println("未設定 SMTP_HOST，郵件只寫入日誌")
		return mailer.LogMailer{}
	}
	return &mailer.SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

func newGateway(cfg *config.Config) payment.Gateway {
	if !cfg.PaymentEnabled() {
		log.Println("未設定 PAYMENT_ACCESS_TOKEN，停用線上付款")
		return payment.Disabled{}
	}
	return payment.NewMercadoPago(cfg.PaymentAccessToken, cfg.PaymentAPIURL)
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if !cfg.StorageEnabled() {
		log.Println("未設定 B2 儲存，停用課程圖片上傳")
		return storage.Disabled{}, nil
	}
	return newB2Storage(ctx, cfg.B2KeyID, cfg.B2AppKey, cfg.B2Bucket)
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	exportSecret(cfg)
	ctx := context.Background()

	db, err := newPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %v", err)
	}
	defer db.Close()

	rdb, err := newRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %v", err)
	}
	defer rdb.Close()

	if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %v", err)
	}

	st, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("B2 連線失敗: %v", err)
	}

	wp := newWorkerPool(cfg.WorkerCount)
	defer wp.Stop()

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
	}))
	// multipart 另有欄位與邊界，預留 1MB
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB+1)))

	router.Setup(e, router.Deps{
		Config:  cfg,
		DB:      db,
		Cache:   rdb,
		Pool:    wp,
		Mailer:  newMailer(cfg),
		Gateway: newGateway(cfg),
		Storage: st,
		Ingest:  ingest.NewService(db, rdb),
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return startServer(e, cfg.Addr())
}
