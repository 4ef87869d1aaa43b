package enrichment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/pkg/llm"
)

const module = "ENRICHMENT"

type Mode string

const (
	ModeGrammar  Mode = "grammar"
	ModeExpand   Mode = "expand"
	ModeSimplify Mode = "simplify"
)

func (m Mode) Valid() bool {
	_, ok := enhancePrompts[m]
	return ok
}

const (
	summarizePrompt = "Please provide a concise summary of the following text. Keep it under 100 words and focus on the key points:\n\n%s"
	questionsPrompt = "Generate 5 relevant %s interview questions."
	questionsFormat = "Please format the response as a numbered list of questions only, without any additional text or explanations."

	NoSummary    = "Unable to generate summary."
	MaxQuestions = 5
)

var enhancePrompts = map[Mode]string{
	ModeGrammar:  "Please correct the grammar and spelling in the following text while maintaining its original meaning and tone:\n\n%s",
	ModeExpand:   "Please expand on the following text by adding more detail and context while keeping the same tone:\n\n%s",
	ModeSimplify: "Please simplify the following text to make it clearer and easier to understand:\n\n%s",
}

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
	numberedLine     = regexp.MustCompile(`^\d+\.`)
	numberPrefix     = regexp.MustCompile(`^\d+\.\s*`)
)

// Client turns one enrichment request into exactly one model round trip.
// It never retries.
type Client struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewClient(provider llm.LLMProvider, log logger.ILogger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{provider: provider, logger: log}
}

// Summarize never fails. When the model is unavailable it returns an extractive
// summary built from the first two sentences of text.
func (c *Client) Summarize(ctx context.Context, text string) string {
	out, err := c.generate(ctx, fmt.Sprintf(summarizePrompt, text))
	if err != nil {
		c.logger.Warn(module, "Summarize fell back to extractive summary", map[string]interface{}{"error": err.Error()})
		return ExtractiveSummary(text)
	}
	return out
}

func (c *Client) Enhance(ctx context.Context, text string, mode Mode) (string, error) {
	tmpl, ok := enhancePrompts[mode]
	if !ok {
		return "", apperror.Validation("enhance", fmt.Sprintf("Unknown enhancement mode %q.", mode))
	}

	out, err := c.generate(ctx, fmt.Sprintf(tmpl, text))
	if err != nil {
		c.logger.Error(module, "Enhance failed", map[string]interface{}{"mode": mode, "error": err})
		return "", apperror.EnhancementFailed("enhance", err)
	}
	return out, nil
}

// GenerateQuestions returns at most five questions, or the built-in list for
// category when the model fails or answers with nothing usable.
func (c *Client) GenerateQuestions(ctx context.Context, category, background string) []string {
	prompt := fmt.Sprintf(questionsPrompt, category)
	if background != "" {
		prompt += " Consider this context: " + background
	}
	prompt += " " + questionsFormat

	out, err := c.generate(ctx, prompt)
	if err == nil {
		if questions := ParseQuestions(out); len(questions) > 0 {
			return questions
		}
		err = llm.ErrEmptyResponse
	}

	c.logger.Warn(module, "Question generation fell back to built-in list", map[string]interface{}{
		"category": category,
		"error":    err.Error(),
	})
	return FallbackQuestions(category)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.provider == nil {
		return "", llm.ErrMissingCredential
	}
	out, err := c.provider.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", llm.ErrEmptyResponse
	}
	return out, nil
}

// ExtractiveSummary joins the first two non-blank sentence fragments with ". "
// and appends a period. Fragments are not trimmed, so the leading space of the
// second sentence is kept.
func ExtractiveSummary(text string) string {
	var sentences []string
	for _, fragment := range sentenceBoundary.Split(text, -1) {
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		sentences = append(sentences, fragment)
		if len(sentences) == 2 {
			break
		}
	}
	if len(sentences) == 0 {
		return NoSummary
	}
	return strings.Join(sentences, ". ") + "."
}

// ParseQuestions keeps numbered lines, strips the numbering and caps the result.
func ParseQuestions(response string) []string {
	var questions []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if !numberedLine.MatchString(trimmed) {
			continue
		}
		q := strings.TrimSpace(numberPrefix.ReplaceAllString(trimmed, ""))
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == MaxQuestions {
			break
		}
	}
	return questions
}
