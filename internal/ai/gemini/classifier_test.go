package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestClassifierClassify(t *testing.T) {
	stub := &stubGenerator{response: `{"test_type": "knowledge & skills", "adaptive_support": true, "remote_support": "Yes"}`}
	classifier := NewClassifier(stub, 0, zap.NewNop())

	got, err := classifier.Classify(context.Background(), "Measures Java programming knowledge.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.TestType != ai.TestTypeKnowledge {
		t.Fatalf("unexpected test type: %q", got.TestType)
	}
	if got.AdaptiveSupport != "yes" || got.RemoteSupport != "yes" {
		t.Fatalf("unexpected support flags: %+v", got)
	}
	if got.Raw == "" {
		t.Fatal("expected raw response to be kept")
	}
	if !strings.Contains(stub.lastPrompt, "Measures Java programming knowledge.") {
		t.Fatalf("expected description in prompt, got %s", stub.lastPrompt)
	}
}

func TestClassifierFallsBackOnError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	classifier := NewClassifier(stub, 0, zap.NewNop())

	got, err := classifier.Classify(context.Background(), "Some description")
	if err == nil {
		t.Fatal("expected error")
	}
	if *got != *ai.FallbackClassification() {
		t.Fatalf("expected fallback classification, got %+v", got)
	}
}

func TestClassifierFallsBackOnGarbage(t *testing.T) {
	classifier := NewClassifier(&stubGenerator{response: "not json"}, 0, zap.NewNop())

	got, err := classifier.Classify(context.Background(), "Some description")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if got.TestType != ai.TestTypeUnknown {
		t.Fatalf("expected fallback test type, got %q", got.TestType)
	}
}

func TestParseResponseHandlesCodeBlock(t *testing.T) {
	raw := "```json\n{\"test_type\": \"Simulation\", \"adaptive_support\": \"no\", \"remote_support\": 1}\n```"
	got, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.TestType != ai.TestTypeOther {
		t.Fatalf("expected unknown vocabulary to map to Other, got %q", got.TestType)
	}
	if got.AdaptiveSupport != "no" || got.RemoteSupport != "yes" {
		t.Fatalf("unexpected support flags: %+v", got)
	}
}
