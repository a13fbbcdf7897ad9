package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/utils"
)

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Classifier infers test type and support flags for an assessment description.
type Classifier struct {
	generator jsonGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewClassifier(generator jsonGenerator, maxLogLength int, log *zap.Logger) *Classifier {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Classifier{
		generator: generator,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
	}
}

// Classify returns the classification for description. On failure the
// fallback classification is returned together with the error.
func (c *Classifier) Classify(ctx context.Context, description string) (*ai.Classification, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return ai.FallbackClassification(), fmt.Errorf("description is required")
	}

	prompt := buildPrompt(description)

	c.logger.Debug("gemini classification request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return ai.FallbackClassification(), err
	}

	c.logger.Debug("gemini classification response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	classification, err := parseResponse(raw)
	if err != nil {
		return ai.FallbackClassification(), err
	}

	classification.Raw = raw
	return classification, nil
}

func buildPrompt(description string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Assessment description:\n{{DESCRIPTION}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{DESCRIPTION}}", description)
}

func parseResponse(raw string) (*ai.Classification, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var out ai.Classification
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	out.TestType = normalizeTestType(out.TestType)
	out.AdaptiveSupport = normalizeYesNo(out.AdaptiveSupport)
	out.RemoteSupport = normalizeYesNo(out.RemoteSupport)

	return &out, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func normalizeTestType(v string) string {
	v = strings.TrimSpace(v)
	for _, known := range []string{ai.TestTypeKnowledge, ai.TestTypePersonality, ai.TestTypeOther} {
		if strings.EqualFold(v, known) {
			return known
		}
	}
	if v == "" {
		return ai.TestTypeUnknown
	}
	return ai.TestTypeOther
}

// normalizeYesNo maps weakly typed booleans ("true", "1", "Yes") to yes/no.
func normalizeYesNo(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return "yes"
	default:
		return "no"
	}
}
