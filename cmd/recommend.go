package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/recommend"
)

const (
	PromptText = "Job description text"
	PromptURL  = "Job posting URL"

	outputText = "text"
	outputJSON = "json"
)

var inputPrompt = promptui.Select{
	Label: "What do you want to match against the catalog?",
	Items: []string{PromptText, PromptURL},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend assessments for a job description or job posting URL",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("text", "t", "", "job description text")
	recommendCmd.Flags().StringP("url", "u", "", "job posting URL")
	recommendCmd.Flags().IntP("top-n", "n", 0, "number of recommendations (default from config)")
	recommendCmd.Flags().StringP("output", "o", outputText, "output format: text or json")
}

func runRecommend(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	logger.Info("starting the "+app, zap.String("version", version))

	output, _ := cmd.Flags().GetString("output")
	if output != outputText && output != outputJSON {
		logger.Fatal("unknown output format", zap.String("output", output))
	}

	text, _ := cmd.Flags().GetString("text")
	url, _ := cmd.Flags().GetString("url")
	topN, _ := cmd.Flags().GetInt("top-n")

	if strings.TrimSpace(text) == "" && strings.TrimSpace(url) == "" {
		var err error
		text, url, err = askInput()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	svc, err := newRecommendService(ctx, config, catalog.File{Path: config.Catalog.Path, Logger: logger}, logger)
	if err != nil {
		logger.Fatal("creating the recommender", zap.Error(err))
	}

	result, err := svc.Recommend(ctx, recommend.Request{
		JobDescription: text,
		JobURL:         url,
		TopN:           topN,
	})
	if err != nil {
		var rerr *recommend.Error
		if errors.As(err, &rerr) {
			logger.Fatal("recommendation failed",
				zap.String("kind", string(rerr.Kind)),
				zap.String("stage", string(rerr.Stage)),
				zap.Error(rerr.Err),
			)
		}
		logger.Fatal("recommendation failed", zap.Error(err))
	}

	if len(result.Recommendations) == 0 {
		logger.Info("exiting", zap.String("reason", "no recommendations found"))
		return
	}

	if output == outputJSON {
		pretty, _ := json.MarshalIndent(result.Recommendations, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	printRecommendations(result)
}

// askInput mirrors the text or URL choice of the web form.
func askInput() (string, string, error) {
	_, choice, err := inputPrompt.Run()
	if err != nil {
		return "", "", err
	}

	label := "Paste the job description"
	if choice == PromptURL {
		label = "Job posting URL"
	}

	value, err := (&promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value is required")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return "", "", err
	}

	if choice == PromptURL {
		return "", value, nil
	}
	return value, "", nil
}

func printRecommendations(result *recommend.Result) {
	fmt.Printf("Top %d assessments out of %d (%s input)\n\n", len(result.Recommendations), result.CatalogSize, result.Input)

	for i, rec := range result.Recommendations {
		length := "N/A"
		if rec.Duration.Known() {
			length = fmt.Sprintf("%d minutes", rec.Duration.Minutes)
		}

		types := "N/A"
		if len(rec.TestTypes) > 0 {
			types = strings.Join(rec.TestTypes, ", ")
		}

		fmt.Printf("%d. %s (similarity %.4f)\n", i+1, rec.Name, rec.Similarity)
		fmt.Printf("   url: %s\n", rec.URL)
		fmt.Printf("   duration: %s | test type: %s | remote: %s | adaptive: %s\n",
			length, types, yesNo(rec.RemoteSupport), yesNo(rec.AdaptiveSupport))
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
