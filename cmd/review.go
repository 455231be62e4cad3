package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Rate how ready a resume is for applicant tracking systems",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or text)")
}

func review(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	svc, _, err := newEvaluation(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the evaluation service", zap.Error(err))
	}

	resumeFile, _ := cmd.Flags().GetString("resume")
	if resumeFile == "" {
		logger.Fatal("resume file is required", zap.String("hint", "pass --resume"))
	}

	resumeText, err := readDocument(resumeFile)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}

	res, err := svc.ReviewResume(ctx, resumeText)
	if err != nil {
		logger.Fatal("reviewing the resume", zap.Error(err))
	}

	printJSON(res)
}
