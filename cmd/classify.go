package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai/gemini"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [description]",
	Short: "Classify an assessment description into test type and support flags",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		classify(strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func classify(description string) {
	ctx := context.Background()

	logger, config := setup()

	client, err := newGeminiClient(ctx, config.AI.Gemini, logger)
	if err != nil {
		logger.Fatal("creating the gemini client", zap.Error(err))
	}

	classifier := gemini.NewClassifier(client, config.AI.Gemini.MaxLogLength, logger)

	result, err := classifier.Classify(ctx, description)
	if err != nil {
		logger.Warn("classification failed, using fallback", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(os.Stdout, string(pretty))
}
