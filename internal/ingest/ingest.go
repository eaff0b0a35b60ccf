package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/database"
	"nutriadmin/internal/model"
	"nutriadmin/internal/spreadsheet"
	"nutriadmin/internal/store"
)

var (
	ErrDuplicateFile  = errors.New("el archivo ya fue cargado")
	ErrInvalidCatalog = errors.New("catálogo inexistente o inactivo")
	ErrEmptyFile      = errors.New("archivo vacío")
)

var (
	catalogItemActive  = store.CatalogItemActive
	uploadHashExists   = store.UploadHashExists
	createUpload       = store.CreateUpload
	finishUpload       = store.FinishUpload
	createSesion       = store.CreateSesion
	findPacienteByName = store.FindPacienteByName
	createPaciente     = store.CreatePaciente
	informeExists      = store.InformeExists
	createInforme      = store.CreateInforme
	parseSpreadsheet   = spreadsheet.Parse
)

type UploadInput struct {
	PlantelID     int
	CategoriaID   int
	LigaID        int
	FechaSesion   time.Time
	UserID        *int
	NombreArchivo string
	Content       []byte
}

type UploadResult struct {
	UploadID            int
	SesionID            int
	TotalFilas          int
	RegistrosInsertados int
	RegistrosDuplicados int
	PacientesCreados    int
}

// Service 試算表匯入流程；Cache 可為 nil
type Service struct {
	DB    database.DB
	Cache cache.Cache
}

func NewService(db database.DB, c cache.Cache) *Service {
	return &Service{DB: db, Cache: c}
}

// FileHash 原始檔案內容的 SHA-256 (hex)
func FileHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Upload 驗證目錄、檢查重複檔案、解析後在同一交易中寫入 session、量測與稽核紀錄
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if len(in.Content) == 0 {
		return nil, ErrEmptyFile
	}
	if err := s.validateCatalogs(ctx, in); err != nil {
		return nil, err
	}

	hash := FileHash(in.Content)
	exists, err := uploadHashExists(ctx, s.DB, hash)
	if err != nil {
		return nil, fmt.Errorf("Upload: %w", err)
	}
	if exists {
		return nil, ErrDuplicateFile
	}

	rows, err := parseSpreadsheet(bytes.NewReader(in.Content))
	if err != nil {
		return nil, err
	}

	res := &UploadResult{TotalFilas: len(rows)}
	err = database.WithTx(ctx, s.DB, func(q database.Querier) error {
		// 先寫入稽核列佔用 file_hash，並行上傳同一檔案時由唯一鍵擋下
		up, err := createUpload(ctx, q, &model.Upload{
			UserID:        in.UserID,
			NombreArchivo: in.NombreArchivo,
			FileHash:      hash,
		})
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateFile
			}
			return err
		}

		archivo := in.NombreArchivo
		ses, err := createSesion(ctx, q, &model.Sesion{
			PlantelID:   in.PlantelID,
			CategoriaID: in.CategoriaID,
			LigaID:      in.LigaID,
			FechaSesion: in.FechaSesion,
			UserID:      in.UserID,
			Archivo:     &archivo,
		})
		if err != nil {
			return err
		}

		if err := s.insertRows(ctx, q, in, ses.ID, rows, res); err != nil {
			return err
		}

		up.SesionID = &ses.ID
		up.TotalFilas = res.TotalFilas
		up.RegistrosInsertados = res.RegistrosInsertados
		up.RegistrosDuplicados = res.RegistrosDuplicados
		if err := finishUpload(ctx, q, up); err != nil {
			return err
		}
		res.UploadID = up.ID
		res.SesionID = ses.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateFile) {
			return nil, err
		}
		return nil, fmt.Errorf("Upload: %w", err)
	}

	log.Printf("Excel 匯入完成 %q: sesion=%d filas=%d nuevos=%d duplicados=%d pacientes=%d",
		in.NombreArchivo, res.SesionID, res.TotalFilas, res.RegistrosInsertados, res.RegistrosDuplicados, res.PacientesCreados)
	s.invalidateDashboard(ctx)
	return res, nil
}

func (s *Service) validateCatalogs(ctx context.Context, in UploadInput) error {
	checks := []struct {
		kind model.CatalogKind
		id   int
	}{
		{model.Planteles, in.PlantelID},
		{model.Categorias, in.CategoriaID},
		{model.Ligas, in.LigaID},
	}
	for _, c := range checks {
		ok, err := catalogItemActive(ctx, s.DB, c.kind, c.id)
		if err != nil && !database.IsNotFound(err) {
			return fmt.Errorf("validateCatalogs: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s %d", ErrInvalidCatalog, c.kind, c.id)
		}
	}
	return nil
}

func (s *Service) insertRows(ctx context.Context, q database.Querier, in UploadInput, sesionID int, rows []model.MeasurementRow, res *UploadResult) error {
	pacientes := map[string]int{}
	seen := map[string]bool{}

	for _, row := range rows {
		key := strings.ToLower(strings.Join(strings.Fields(row.Nombre), " "))
		pid, ok := pacientes[key]
		if !ok {
			id, created, err := resolvePaciente(ctx, q, row, in.PlantelID)
			if err != nil {
				return fmt.Errorf("fila %d: %w", row.Fila, err)
			}
			if created {
				res.PacientesCreados++
			}
			pacientes[key] = id
			pid = id
		}

		fecha := in.FechaSesion
		if row.Fecha != nil {
			fecha = *row.Fecha
		}
		dayKey := fmt.Sprintf("%d|%s", pid, fecha.Format("2006-01-02"))
		if seen[dayKey] {
			res.RegistrosDuplicados++
			continue
		}
		seen[dayKey] = true

		exists, err := informeExists(ctx, q, pid, fecha)
		if err != nil {
			return fmt.Errorf("fila %d: %w", row.Fila, err)
		}
		if exists {
			res.RegistrosDuplicados++
			continue
		}

		if _, err := createInforme(ctx, q, &model.Informe{
			PacienteID:    pid,
			SesionID:      sesionID,
			FechaMedicion: fecha,
			Medidas:       row.Medidas,
		}); err != nil {
			return fmt.Errorf("fila %d: %w", row.Fila, err)
		}
		res.RegistrosInsertados++
	}
	return nil
}

// resolvePaciente 以姓名找病患，找不到時建立
func resolvePaciente(ctx context.Context, q database.Querier, row model.MeasurementRow, plantelID int) (int, bool, error) {
	p, err := findPacienteByName(ctx, q, row.Nombre)
	if err == nil {
		return p.ID, false, nil
	}
	if !database.IsNotFound(err) {
		return 0, false, err
	}
	p, err = createPaciente(ctx, q, &model.Paciente{
		Nombre:    row.Nombre,
		Sexo:      row.Sexo,
		PlantelID: &plantelID,
	})
	if err != nil {
		return 0, false, err
	}
	return p.ID, true, nil
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, cache.DashboardKey).Err(); err != nil {
		log.Printf("清除儀表板快取失敗: %v", err)
	}
}
