package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/letieu/reddit-profiler/config"
	"google.golang.org/genai"
)

const (
	MaxOutputTokens = 2000
	Temperature     = 0.7

	EmptyResponseText = "AI analysis completed, but no content was generated."
	BlockedTextFormat = "AI analysis was blocked due to safety concerns: %s."
	FailedText        = "AI analysis failed to generate a response. Please try again."
)

// Outcome classifies a generation result. Only OutcomeGenerated carries
// model text; the others carry a fixed explanation.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeEmpty     Outcome = "empty"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeFailed    Outcome = "failed"
)

type Result struct {
	Text        string  `json:"text"`
	Outcome     Outcome `json:"outcome"`
	BlockReason string  `json:"block_reason,omitempty"`
}

// Generator is the subset of *genai.Models the analyzer uses.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Analyzer struct {
	models Generator
	config *genai.GenerateContentConfig
}

// InvocationError is a transport or API failure of the generation call.
type InvocationError struct {
	Model   string
	Message string
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("generate content with %s: %s", e.Model, e.Message)
}

func (e *InvocationError) Unwrap() error { return e.Err }

func New(ctx context.Context, cnf config.Config) (*Analyzer, error) {
	if cnf.Gemini.APIKey == "" {
		return nil, &config.ConfigError{Missing: []string{"gemini.api_key"}}
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cnf.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cnf.Gemini.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cnf.Gemini.BaseURL}
	}

	genaiClient, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return NewWithGenerator(genaiClient.Models), nil
}

func NewWithGenerator(models Generator) *Analyzer {
	return &Analyzer{models: models, config: generationConfig()}
}

func generationConfig() *genai.GenerateContentConfig {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	safety := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		safety = append(safety, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}

	return &genai.GenerateContentConfig{
		MaxOutputTokens: MaxOutputTokens,
		Temperature:     genai.Ptr[float32](Temperature),
		SafetySettings:  safety,
	}
}

// Analyze sends prompt as a single user turn to model. Empty, blocked and
// missing responses are returned as results, not errors.
func (a *Analyzer) Analyze(ctx context.Context, model, prompt string) (*Result, error) {
	resp, err := a.models.GenerateContent(ctx, model, genai.Text(prompt), a.config)
	if err != nil {
		return nil, &InvocationError{Model: model, Message: err.Error(), Err: err}
	}
	return interpret(resp), nil
}

func interpret(resp *genai.GenerateContentResponse) *Result {
	if resp == nil {
		return &Result{Text: FailedText, Outcome: OutcomeFailed}
	}

	if len(resp.Candidates) > 0 {
		var sb strings.Builder
		if c := resp.Candidates[0]; c != nil && c.Content != nil {
			for _, part := range c.Content.Parts {
				if part != nil {
					sb.WriteString(part.Text)
				}
			}
		}
		if sb.Len() == 0 {
			return &Result{Text: EmptyResponseText, Outcome: OutcomeEmpty}
		}
		return &Result{Text: sb.String(), Outcome: OutcomeGenerated}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		reason := string(resp.PromptFeedback.BlockReason)
		return &Result{
			Text:        fmt.Sprintf(BlockedTextFormat, reason),
			Outcome:     OutcomeBlocked,
			BlockReason: reason,
		}
	}

	return &Result{Text: FailedText, Outcome: OutcomeFailed}
}
