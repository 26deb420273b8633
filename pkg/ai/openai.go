package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "projeval",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "projeval",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"model", "reason"})
)

// OpenAIConfig defines configuration options for the chat-completion grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	// JSONMode asks the endpoint for a JSON object response.
	JSONMode bool
	Logger   zerolog.Logger
}

// OpenAIGrader implements Grader against an OpenAI-compatible chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a new grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIGrader{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/projeval-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "ai_grader").Str("model", cfg.Model).Logger(),
	}, nil
}

// Model returns the configured model name.
func (g *OpenAIGrader) Model() string {
	return g.cfg.Model
}

// Grade sends the submission to the model and parses the proposed grade.
func (g *OpenAIGrader) Grade(parent context.Context, input GradingInput) (GradingResult, error) {
	ctx, cancel := context.WithTimeout(parent, g.cfg.Timeout)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, "ai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("max_points", input.MaxPoints),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: graderSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
	}
	if g.cfg.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		reason := "transport"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return GradingResult{}, g.fail(span, reason, fmt.Errorf("ai grade: %w", err))
	}

	if len(resp.Choices) == 0 {
		return GradingResult{}, g.fail(span, "empty", fmt.Errorf("ai grade: no choices returned"))
	}

	content := resp.Choices[0].Message.Content
	result, err := ParseGradingResponse(content, input.MaxPoints)
	if err != nil {
		g.logger.Warn().Int("response_length", len(content)).Msg("ai response had no extractable grade")
		return GradingResult{}, g.fail(span, "unparseable", err)
	}

	result.Model = g.cfg.Model
	span.SetAttributes(
		attribute.Int("grade", result.Grade),
		attribute.String("format", string(result.Format)),
	)

	return result, nil
}

func (g *OpenAIGrader) fail(span trace.Span, reason string, err error) error {
	aiFailures.WithLabelValues(g.cfg.Model, reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

func graderSystemPrompt() string {
	return "You are an AI grading assistant for university course projects. Grade the student submission strictly against the rubric. " +
		"Respond with a JSON object containing a numeric \"grade\" field and a string \"feedback\" field that explains the grade."
}

func buildUserPrompt(input GradingInput) string {
	rubric := strings.TrimSpace(input.Rubric)
	if rubric == "" {
		rubric = DefaultRubric
	}

	builder := strings.Builder{}
	builder.WriteString("## Rubric\n")
	builder.WriteString(rubric)
	builder.WriteString("\n\n## Student Submission\n")
	builder.WriteString(input.Content)
	builder.WriteString(fmt.Sprintf("\n\nProvide a numerical grade out of %d and detailed feedback explaining the grade.", input.MaxPoints))
	builder.WriteString("\nReturn JSON with 'grade' and 'feedback' fields.")
	return builder.String()
}
