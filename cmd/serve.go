package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/api"
	"github.com/h2316307-design/adhub-pro-sub009/integrations/postgres"
	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/export"
	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	servePort  string
	serveDBURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Starts the HTTP API server. POST /statement builds a statement from the
records in the request body. When a database is configured,
GET /customers/{id}/statement reads the records from PostgreSQL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Server mode always logs
		serverLogger := logger
		if !verbose {
			l, err := zap.NewProduction()
			if err != nil {
				l = newConsoleLogger(zapcore.InfoLevel)
			}
			serverLogger = l
		}
		defer serverLogger.Sync()

		patterns, err := ledger.LoadPatterns()
		if err != nil {
			return err
		}

		cfg := api.DefaultConfig()
		cfg.Port = ":" + viper.GetString("server.port")
		if servePort != "" {
			cfg.Port = ":" + servePort
		}
		if origins := viper.GetStringSlice("server.cors_allowed_origins"); len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
		cfg.Patterns = patterns
		cfg.PDF = export.PDFOptions{FontFile: viper.GetString("export.font_file"), Logger: serverLogger}

		var service *statement.Service
		url := serveDBURL
		if url == "" {
			url = viper.GetString("database.url")
		}
		if url != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			db, err := postgres.Connect(ctx, url, serverLogger)
			cancel()
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer db.Close()
			service = statement.NewService(db, serverLogger, patterns)
		} else {
			serverLogger.Warn("no database configured, serving bundle statements only")
		}

		server := api.New(cfg, service, serverLogger)
		return server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to run the API server on (default server.port)")
	serveCmd.Flags().StringVar(&serveDBURL, "db-url", "", "PostgreSQL connection URL (or set DATABASE_URL env)")
}
