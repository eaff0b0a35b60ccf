package main

import (
	"log"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "資料庫 schema 遷移",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "執行所有尚未套用的 migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Println("migration 完成")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "退回所有 migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := rollbackAllFn(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Println("已退回所有 migration")
			return nil
		},
	})
	return cmd
}
