package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/xscribe/cmd/transcript"
	"github.com/Taichi-iskw/xscribe/internal/broadcast"
	"github.com/Taichi-iskw/xscribe/internal/config"
	"github.com/Taichi-iskw/xscribe/internal/logger"
	"github.com/Taichi-iskw/xscribe/internal/migrations"
	transcriptRepo "github.com/Taichi-iskw/xscribe/internal/repository/transcript"
	"github.com/Taichi-iskw/xscribe/internal/server"
)

// serveCmd runs the HTTP API and progress websocket
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Serve the transcription API on the configured address.

Progress of every run is broadcast on /ws; clients pass ?run=<id> to follow a single run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel})

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := migrations.Up(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info("database migrations applied")
		}

		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer config.CloseDatabasePool(dbPool)

		repo := transcriptRepo.NewRepository(dbPool)
		hub := broadcast.NewHub(log)

		orchestrator, err := transcript.NewOrchestrator(cfg, repo, hub, log)
		if err != nil {
			return err
		}

		return server.New(orchestrator, repo, hub, log).ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address, overrides server.addr")
	serveCmd.Flags().Bool("migrate", false, "Apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
