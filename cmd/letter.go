package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var letterCmd = &cobra.Command{
	Use:   "letter",
	Short: "Draft a cover letter for a vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		letter(cmd)
	},
}

func init() {
	rootCmd.AddCommand(letterCmd)

	letterCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or text)")
	letterCmd.Flags().String("job", "", "vacancy file (pdf, docx or text)")
	letterCmd.Flags().StringP("vacancy-url", "u", "", "hh.ru vacancy link, used instead of --job")
	letterCmd.Flags().String("tone", "", "tone of the letter, e.g. дружелюбный")
}

func letter(cmd *cobra.Command) {
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

	jobText, err := loadJob(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading the vacancy", zap.Error(err))
	}

	tone, _ := cmd.Flags().GetString("tone")

	res, err := svc.CoverLetter(ctx, resumeText, jobText, tone)
	if err != nil {
		logger.Fatal("drafting the cover letter", zap.Error(err))
	}

	logger.Debug("cover letter drafted", zap.String("source", string(res.Source)))
	fmt.Println(res.Text)
}
