package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/projeval-api/internal/grading"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	freeTextGrade     = regexp.MustCompile(`(?i)grade["'\s:=]+(-?\d+(?:\.\d+)?)`)
)

// ParseGradingResponse extracts a grade and feedback from raw model output.
// It tries the whole text as JSON, then a fenced JSON block, then a free-text
// "grade: N" scan that keeps the entire text as feedback.
func ParseGradingResponse(text string, maxPoints int) (GradingResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return GradingResult{}, fmt.Errorf("%w: empty response", ErrUnparseableResponse)
	}

	if result, ok := parseJSONPayload(trimmed, maxPoints); ok {
		result.Format = FormatJSON
		return result, nil
	}

	if match := fencedJSONPattern.FindStringSubmatch(trimmed); len(match) == 2 {
		if result, ok := parseJSONPayload(match[1], maxPoints); ok {
			result.Format = FormatFencedJSON
			return result, nil
		}
	}

	if match := freeTextGrade.FindStringSubmatch(trimmed); len(match) == 2 {
		value, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			return GradingResult{
				Grade:    grading.Clamp(value, maxPoints),
				Feedback: trimmed,
				Format:   FormatFreeText,
			}, nil
		}
	}

	return GradingResult{}, ErrUnparseableResponse
}

func parseJSONPayload(raw string, maxPoints int) (GradingResult, bool) {
	var payload struct {
		Grade    *json.Number    `json:"grade"`
		Feedback json.RawMessage `json:"feedback"`
	}

	if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.Grade == nil {
		return GradingResult{}, false
	}

	value, err := payload.Grade.Float64()
	if err != nil {
		return GradingResult{}, false
	}

	return GradingResult{
		Grade:    grading.Clamp(value, maxPoints),
		Feedback: feedbackText(payload.Feedback),
	}, true
}

// feedbackText keeps string feedback as-is and serialises structured feedback.
func feedbackText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(raw))
}
