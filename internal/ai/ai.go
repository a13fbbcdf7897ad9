package ai

import "context"

// Test type vocabulary used by the catalog classifier.
const (
	TestTypeKnowledge   = "Knowledge & Skills"
	TestTypePersonality = "Personality & Behaviour"
	TestTypeOther       = "Other"
	TestTypeUnknown     = "N/A"
)

// Embedder maps text to a fixed-length vector. An empty vector is never
// returned without an error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Classification describes catalog attributes inferred from an assessment description.
type Classification struct {
	TestType        string `json:"test_type" mapstructure:"test_type"`
	AdaptiveSupport string `json:"adaptive_support" mapstructure:"adaptive_support"`
	RemoteSupport   string `json:"remote_support" mapstructure:"remote_support"`
	Raw             string `json:"-" mapstructure:"-"`
}

// Classifier infers catalog attributes from a free-text description.
type Classifier interface {
	Classify(ctx context.Context, description string) (*Classification, error)
}

// FallbackClassification is used when the classifier cannot produce an answer.
func FallbackClassification() *Classification {
	return &Classification{
		TestType:        TestTypeUnknown,
		AdaptiveSupport: "no",
		RemoteSupport:   "no",
	}
}
