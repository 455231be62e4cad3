package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/hh-resume-fit/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "address to listen on (default 0.0.0.0)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default 5177)")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	logger.Info("starting the hh-resume-fit api", zap.String("version", version))

	svc, aiEnabled, err := newEvaluation(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the evaluation service", zap.Error(err))
	}

	// A nil client must stay a nil interface for the handler.
	var vacancies server.VacancyFetcher
	if hh := newHeadhunter(config.Headhunter, logger); hh != nil {
		vacancies = hh
	}

	handler := server.NewHandler(svc, vacancies, logger, version, aiEnabled)

	if err := server.New(config.Server, handler, logger).Run(ctx); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}
