package recommend

import (
	"errors"
	"fmt"
)

// Kind classifies a failed recommendation.
type Kind string

const (
	KindInput    Kind = "InputError"
	KindUpstream Kind = "UpstreamFailure"
	KindCatalog  Kind = "CatalogError"
)

// Stage names a step of the recommendation pipeline.
type Stage string

const (
	StageValidate Stage = "validate"
	StageExtract  Stage = "extract"
	StageEmbed    Stage = "embed"
	StageCatalog  Stage = "load_catalog"
	StageRank     Stage = "rank"
	StageAugment  Stage = "augment"
)

var (
	ErrInput    = errors.New("invalid input")
	ErrUpstream = errors.New("upstream failure")
	ErrCatalog  = errors.New("catalog error")
)

// Error is returned by Recommend when a stage before ranking fails.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Stage, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInput:
		return ErrInput
	case KindUpstream:
		return ErrUpstream
	default:
		return ErrCatalog
	}
}

func fail(kind Kind, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf reports the kind of a recommendation error, or "" when err is not one.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}
