package router

import (
	"nutriadmin/internal/cache"
	"nutriadmin/internal/config"
	"nutriadmin/internal/database"
	"nutriadmin/internal/handler"
	"nutriadmin/internal/handler/anthropometric"
	"nutriadmin/internal/handler/auth"
	"nutriadmin/internal/handler/catalog"
	"nutriadmin/internal/handler/cuotas"
	"nutriadmin/internal/handler/cursos"
	"nutriadmin/internal/handler/dashboard"
	"nutriadmin/internal/handler/documentos"
	"nutriadmin/internal/handler/excel"
	"nutriadmin/internal/handler/pacientes"
	"nutriadmin/internal/handler/payments"
	"nutriadmin/internal/handler/users"
	"nutriadmin/internal/mailer"
	"nutriadmin/internal/middleware"
	"nutriadmin/internal/model"
	"nutriadmin/internal/payment"
	"nutriadmin/internal/storage"
	"nutriadmin/internal/worker"

	"github.com/labstack/echo/v4"
)

// Deps 路由需要的外部依賴
type Deps struct {
	Config  *config.Config
	DB      database.DB
	Cache   cache.Cache
	Pool    worker.Pool
	Mailer  mailer.Mailer
	Gateway payment.Gateway
	Storage storage.Storage
	Ingest  excel.Uploader
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	db, rdb, cfg := d.DB, d.Cache, d.Config
	api := e.Group("/api")

	// 公開端點
	api.GET("/health", handler.HealthHandler(db, rdb))
	api.POST("/payments/webhook", payments.WebhookHandler(db, rdb, d.Gateway, cfg.PaymentWebhookSecret))

	apiAuth := api.Group("/auth")
	apiAuth.POST("/register", auth.RegisterHandler(db))
	apiAuth.POST("/login", auth.LoginHandler(db, rdb))
	apiAuth.POST("/refresh", auth.RefreshHandler(db, rdb))
	apiAuth.POST("/logout", auth.LogoutHandler(rdb))
	apiAuth.POST("/forgot-password", auth.ForgotPasswordHandler(db, d.Mailer, d.Pool, cfg.FrontendURL))
	apiAuth.POST("/reset-password", auth.ResetPasswordHandler(db))
	apiAuth.GET("/me", auth.MeHandler(db), middleware.RequireAuth)
	apiAuth.PATCH("/password", auth.UpdatePasswordHandler(db), middleware.RequireAuth)

	// 管理員專屬 Users CRUD
	apiUsers := api.Group("/users", middleware.RequireAdmin)
	apiUsers.GET("", users.ListUsersHandler(db))
	apiUsers.POST("", users.CreateUserHandler(db))
	apiUsers.GET("/:id", users.GetUserHandler(db))
	apiUsers.PUT("/:id", users.UpdateUserHandler(db))
	apiUsers.DELETE("/:id", users.DeleteUserHandler(db))

	// 目錄：登入即可讀取，工作人員維護
	for _, kind := range []model.CatalogKind{model.Planteles, model.Categorias, model.Ligas} {
		g := api.Group("/"+string(kind), middleware.RequireAuth)
		g.GET("", catalog.ListHandler(db, kind))
		g.POST("", catalog.CreateHandler(db, kind), middleware.RequireStaff)
		g.PUT("/:id", catalog.UpdateHandler(db, kind), middleware.RequireStaff)
		g.DELETE("/:id", catalog.DeleteHandler(db, kind), middleware.RequireStaff)
	}

	apiPacientes := api.Group("/pacientes", middleware.RequireStaff)
	apiPacientes.GET("", pacientes.ListHandler(db))
	apiPacientes.POST("", pacientes.CreateHandler(db))
	apiPacientes.GET("/:id", pacientes.GetHandler(db))
	apiPacientes.PUT("/:id", pacientes.UpdateHandler(db))
	apiPacientes.DELETE("/:id", pacientes.DeleteHandler(db))
	apiPacientes.GET("/:id/informes", pacientes.InformesHandler(db))

	apiAnthro := api.Group("/anthropometric", middleware.RequireStaff)
	apiAnthro.GET("/sesiones", anthropometric.ListSesionesHandler(db))
	apiAnthro.GET("/sesiones/:id", anthropometric.GetSesionHandler(db))
	apiAnthro.DELETE("/sesiones/:id", anthropometric.DeleteSesionHandler(db), middleware.RequireAdmin)
	apiAnthro.GET("/informes/:id", anthropometric.GetInformeHandler(db))
	apiAnthro.PUT("/informes/:id", anthropometric.UpdateInformeHandler(db))
	apiAnthro.DELETE("/informes/:id", anthropometric.DeleteInformeHandler(db))

	apiExcel := api.Group("/excel", middleware.RequireStaff)
	apiExcel.POST("/upload", excel.UploadHandler(d.Ingest, cfg.MaxUploadBytes()))
	apiExcel.GET("/uploads", excel.ListUploadsHandler(db))
	apiExcel.GET("/template", excel.TemplateHandler())

	apiCursos := api.Group("/cursos", middleware.RequireAuth)
	apiCursos.GET("", cursos.ListHandler(db))
	apiCursos.GET("/mis-cursos", cursos.MisCursosHandler(db))
	apiCursos.GET("/:id", cursos.GetHandler(db))
	apiCursos.POST("", cursos.CreateHandler(db), middleware.RequireAdmin)
	apiCursos.PUT("/:id", cursos.UpdateHandler(db), middleware.RequireAdmin)
	apiCursos.DELETE("/:id", cursos.DeleteHandler(db), middleware.RequireAdmin)
	apiCursos.POST("/:id/imagen", cursos.ImagenHandler(db, d.Storage, cfg.MaxUploadBytes()), middleware.RequireAdmin)
	apiCursos.POST("/:id/acceso", cursos.GrantAccessHandler(db), middleware.RequireAdmin)
	apiCursos.DELETE("/:id/acceso/:user_id", cursos.RevokeAccessHandler(db), middleware.RequireAdmin)
	apiCursos.GET("/:id/inscritos", cursos.InscritosHandler(db), middleware.RequireAdmin)

	apiCuotas := api.Group("/cuotas", middleware.RequireAuth)
	apiCuotas.GET("/mis-cuotas", cuotas.MisCuotasHandler(db))
	apiCuotas.GET("", cuotas.ListHandler(db), middleware.RequireAdmin)
	apiCuotas.POST("", cuotas.CreateHandler(db), middleware.RequireAdmin)
	apiCuotas.PUT("/:id", cuotas.UpdateHandler(db), middleware.RequireAdmin)
	apiCuotas.DELETE("/:id", cuotas.DeleteHandler(db), middleware.RequireAdmin)
	apiCuotas.PATCH("/:id/usuarios/:user_id", cuotas.SetEstadoHandler(db), middleware.RequireAdmin)

	checkout := payments.CheckoutOptions{
		BackURL:         cfg.FrontendURL + "/pagos/resultado",
		NotificationURL: cfg.PaymentNotificationURL,
	}
	apiPayments := api.Group("/payments", middleware.RequireAuth)
	apiPayments.POST("/cursos/:id", payments.CheckoutCursoHandler(db, d.Gateway, checkout))
	apiPayments.POST("/cuotas/:id", payments.CheckoutCuotaHandler(db, d.Gateway, checkout))
	apiPayments.GET("/mis-pagos", payments.MisPagosHandler(db))
	apiPayments.GET("", payments.ListHandler(db), middleware.RequireAdmin)

	// 文件：登入即可瀏覽，工作人員上傳與維護
	apiDocs := api.Group("/documentos", middleware.RequireAuth)
	apiDocs.GET("", documentos.ListHandler(db))
	apiDocs.GET("/:id/archivo", documentos.ArchivoHandler(db))
	apiDocs.GET("/:id/thumbnail", documentos.ThumbnailHandler(db))
	apiDocs.POST("", documentos.CreateHandler(db, d.Pool, cfg.MaxUploadBytes()), middleware.RequireStaff)
	apiDocs.PUT("/:id", documentos.UpdateHandler(db), middleware.RequireStaff)
	apiDocs.DELETE("/:id", documentos.DeleteHandler(db), middleware.RequireStaff)

	api.GET("/dashboard", dashboard.Handler(db, rdb, cfg.DashboardCacheTTL), middleware.RequireStaff)
}
