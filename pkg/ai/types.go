package ai

import (
	"context"
	"errors"
)

// DefaultRubric is used when an assignment carries no rubric text.
const DefaultRubric = "Grade based on correctness, completeness, and clarity."

// ErrUnparseableResponse indicates the model answered but no grade could be extracted.
var ErrUnparseableResponse = errors.New("ai response contained no extractable grade")

// GradingInput contains the artefacts needed to grade a written submission.
type GradingInput struct {
	Content   string
	Rubric    string
	MaxPoints int
}

// ResponseFormat records which parsing strategy produced a result.
type ResponseFormat string

const (
	FormatJSON       ResponseFormat = "json"
	FormatFencedJSON ResponseFormat = "fenced_json"
	FormatFreeText   ResponseFormat = "free_text"
)

// GradingResult is the grade and feedback proposed by the model.
// Grade is already clamped to [0, MaxPoints].
type GradingResult struct {
	Grade    int            `json:"grade"`
	Feedback string         `json:"feedback"`
	Format   ResponseFormat `json:"format"`
	Model    string         `json:"model,omitempty"`
}

// Grader describes an AI model capable of grading written submissions.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingResult, error)
}
