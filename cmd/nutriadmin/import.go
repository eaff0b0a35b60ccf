package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/ingest"

	"github.com/spf13/cobra"
)

var (
	readFile   = os.ReadFile
	uploadFile = func(ctx context.Context, svc *ingest.Service, in ingest.UploadInput) (*ingest.UploadResult, error) {
		return svc.Upload(ctx, in)
	}
)

type importOptions struct {
	plantel   int
	categoria int
	liga      int
	fecha     string
	user      int
}

func importCmd() *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:   "import <archivo.xlsx>",
		Short: "匯入人體測量 Excel (與 /api/excel/upload 相同流程)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().IntVar(&opts.plantel, "plantel", 0, "plantel id")
	cmd.Flags().IntVar(&opts.categoria, "categoria", 0, "categoría id")
	cmd.Flags().IntVar(&opts.liga, "liga", 0, "liga id")
	cmd.Flags().StringVar(&opts.fecha, "fecha", "", "fecha de sesión YYYY-MM-DD (預設今天)")
	cmd.Flags().IntVar(&opts.user, "user", 0, "id del usuario que sube el archivo")
	_ = cmd.MarkFlagRequired("plantel")
	_ = cmd.MarkFlagRequired("categoria")
	_ = cmd.MarkFlagRequired("liga")
	return cmd
}

func (o importOptions) input(path string, content []byte) (ingest.UploadInput, error) {
	if o.plantel <= 0 || o.categoria <= 0 || o.liga <= 0 {
		return ingest.UploadInput{}, fmt.Errorf("plantel, categoria 與 liga 必須為正整數")
	}
	fecha := time.Now().UTC().Truncate(24 * time.Hour)
	if o.fecha != "" {
		t, err := time.Parse("2006-01-02", o.fecha)
		if err != nil {
			return ingest.UploadInput{}, fmt.Errorf("無效的 --fecha: %v", err)
		}
		fecha = t
	}
	in := ingest.UploadInput{
		PlantelID:     o.plantel,
		CategoriaID:   o.categoria,
		LigaID:        o.liga,
		FechaSesion:   fecha,
		NombreArchivo: filepath.Base(path),
		Content:       content,
	}
	if o.user > 0 {
		uid := o.user
		in.UserID = &uid
	}
	return in, nil
}

func runImport(ctx context.Context, path string, opts importOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if filepath.Ext(path) != ".xlsx" {
		return fmt.Errorf("只接受 .xlsx 檔案: %s", path)
	}
	content, err := readFile(path)
	if err != nil {
		return fmt.Errorf("讀取檔案失敗: %w", err)
	}
	in, err := opts.input(path, content)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := newPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %v", err)
	}
	defer db.Close()

	// Redis 只用於清除儀表板快取，連不上仍可匯入
	var rdb cache.Cache
	if c, err := newRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Printf("Redis 連線失敗，略過快取清除: %v", err)
	} else {
		rdb = c
		defer c.Close()
	}

	res, err := uploadFile(ctx, ingest.NewService(db, rdb), in)
	if err != nil {
		return err
	}
	log.Printf("匯入完成 upload=%d sesion=%d filas=%d insertados=%d duplicados=%d pacientes_nuevos=%d",
		res.UploadID, res.SesionID, res.TotalFilas, res.RegistrosInsertados, res.RegistrosDuplicados, res.PacientesCreados)
	return nil
}
