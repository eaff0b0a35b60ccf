package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts  = 3
	connectBackoff   = 2 * time.Second
	statementTimeout = "30000"
)

var (
	pgxpoolNew = pgxpool.NewWithConfig
	pingPool   = func(ctx context.Context, p *pgxpool.Pool) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return p.Ping(ctx)
	}
	closePool = func(p *pgxpool.Pool) { p.Close() }
	sleep     = time.Sleep
)

// NewPgxPool 建立連線池，每條連線設定 30 秒 statement_timeout，連線失敗時以固定間隔重試
func NewPgxPool(ctx context.Context, url string) (DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("NewPgxPool: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 10 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET statement_timeout = "+statementTimeout)
		return err
	}

	for i := 0; i < connectAttempts; i++ {
		var pool *pgxpool.Pool
		pool, err = pgxpoolNew(ctx, cfg)
		if err == nil {
			if err = pingPool(ctx, pool); err == nil {
				return pool, nil
			}
			closePool(pool)
		}
		log.Printf("資料庫連線第 %d 次失敗: %v", i+1, err)
		if i < connectAttempts-1 {
			sleep(connectBackoff)
		}
	}
	return nil, fmt.Errorf("NewPgxPool: %w", err)
}
