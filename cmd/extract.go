package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Split a vacancy into requirements, nice-to-have and responsibilities",
	Run: func(cmd *cobra.Command, _ []string) {
		extract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("job", "", "vacancy file (pdf, docx or text)")
	extractCmd.Flags().StringP("vacancy-url", "u", "", "hh.ru vacancy link, used instead of --job")
}

func extract(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	svc, _, err := newEvaluation(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the evaluation service", zap.Error(err))
	}

	jobText, err := loadJob(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading the vacancy", zap.Error(err))
	}

	breakdown, err := svc.ExtractJob(jobText)
	if err != nil {
		logger.Fatal("extracting the vacancy", zap.Error(err))
	}

	if !breakdown.HasSections() {
		logger.Info("no known section headings found, using fallback phrases", zap.Int("count", len(breakdown.Fallback)))
	}

	printJSON(breakdown)
}
