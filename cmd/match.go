package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/hh-resume-fit/internal/document"
	"github.com/spigell/hh-resume-fit/internal/evaluation"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	ModeDetailed = "detailed"
	ModeKeyword  = "keyword"

	PromptSummary         = "Show summary"
	PromptDetails         = "Show detailed analysis"
	PromptRecommendations = "Show recommendations"
	PromptReportToFile    = "Dump report to file"
	PromptExit            = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptSummary, PromptDetails, PromptRecommendations, PromptReportToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a resume against a vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or text)")
	matchCmd.Flags().String("job", "", "vacancy file (pdf, docx or text)")
	matchCmd.Flags().StringP("vacancy-url", "u", "", "hh.ru vacancy link, used instead of --job")
	matchCmd.Flags().StringP("mode", "m", ModeDetailed, "match mode: detailed or keyword")
	matchCmd.Flags().BoolP("interactive", "i", false, "browse the detailed report in a menu")
}

func match(cmd *cobra.Command) {
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

	mode, _ := cmd.Flags().GetString("mode")
	interactive, _ := cmd.Flags().GetBool("interactive")

	switch strings.ToLower(mode) {
	case ModeKeyword:
		if interactive {
			logger.Warn("interactive menu is available for the detailed mode only")
		}

		res, err := svc.KeywordMatch(ctx, resumeText, jobText)
		if err != nil {
			logger.Fatal("keyword match", zap.Error(err))
		}
		printJSON(res)
	case ModeDetailed:
		report, err := svc.DetailedMatch(ctx, resumeText, jobText)
		if err != nil {
			logger.Fatal("detailed match", zap.Error(err))
		}

		if !interactive {
			printJSON(report)
			return
		}

		for {
			_, action, err := prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}

			if err := handleAction(action, logger, report); err != nil {
				if errors.Is(err, errExit) {
					return
				}
				logger.Fatal("exiting", zap.Error(err))
			}
		}
	default:
		logger.Fatal("unknown match mode", zap.String("mode", mode))
	}
}

func handleAction(action string, logger *zap.Logger, report *evaluation.Report) error {
	switch action {
	case PromptSummary:
		printJSON(struct {
			Job       evaluation.JobSummary       `json:"job"`
			Candidate evaluation.CandidateSummary `json:"candidate"`
			Match     evaluation.MatchSummary     `json:"match"`
		}{report.Job, report.Candidate, report.Match})
		return nil
	case PromptDetails:
		for _, entry := range report.DetailedAnalysis {
			fmt.Printf("[%s %d%%] %s\n", entry.Status, entry.Score, entry.Requirement)
			if entry.Evidence != nil {
				fmt.Println("    " + *entry.Evidence)
			}
			if entry.Comment != nil {
				fmt.Println("    " + *entry.Comment)
			}
		}
		return nil
	case PromptRecommendations:
		for _, rec := range report.Match.Recommendations {
			fmt.Println("- " + rec)
		}
		return nil
	case PromptReportToFile:
		filename, err := report.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// loadJob reads the vacancy from --vacancy-url when given, otherwise from --job.
func loadJob(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (string, error) {
	link, _ := cmd.Flags().GetString("vacancy-url")
	if link == "" {
		jobFile, _ := cmd.Flags().GetString("job")
		if jobFile == "" {
			return "", errors.New("either --job or --vacancy-url is required")
		}
		return readDocument(jobFile)
	}

	hh := newHeadhunter(config.Headhunter, logger)
	if hh == nil {
		return "", errors.New("vacancy fetching is disabled by headhunter.disabled")
	}

	vacancy, err := hh.GetVacancyByURL(ctx, link)
	if err != nil {
		return "", err
	}

	logger.Info("got the vacancy",
		zap.String("vacancy_id", vacancy.ID),
		zap.String("vacancy_name", vacancy.Name),
	)

	return vacancy.Text()
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text, err := document.Extract(filepath.Base(path), "", data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	return text, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	// stdout write errors are not actionable here
	_ = enc.Encode(v)
}
