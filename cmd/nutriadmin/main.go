// @title        NutriAdmin API
// @version      1.0
// @description  營養協會管理後台 API：病患、人體測量、Excel 匯入、課程、會費與付款
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var exitFunc = os.Exit

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nutriadmin",
		Short:         "NutriAdmin 後端服務",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(importCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Print(err)
		exitFunc(1)
	}
}
