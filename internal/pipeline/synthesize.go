package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chirplab/chirp/internal/config"
	"github.com/chirplab/chirp/internal/llm"
	"github.com/chirplab/chirp/internal/xapi"
)

// NoEvidenceAnswer is returned without any model call when retrieval
// produced nothing to cite.
const NoEvidenceAnswer = "Sorry, I couldn't find any relevant tweets to answer that question."

const answerSystemPrompt = `You answer questions using tweets gathered from X search.
Reason through the evidence carefully before writing, but reply with only the final answer.
Rules:
- Use only the tweets below as evidence. Never invent facts.
- Cite the author's @handle for every claim you take from a tweet.
- If the tweets are not enough to answer, say so plainly.`

// AnswerSynthesizer turns a question and its posts into a cited answer.
type AnswerSynthesizer struct {
	llm    llm.Completer
	cfg    config.LLMConfig
	logger *slog.Logger
}

func NewSynthesizer(completer llm.Completer, cfg config.LLMConfig, logger *slog.Logger) *AnswerSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerSynthesizer{llm: completer, cfg: cfg, logger: logger}
}

// Answer writes an answer grounded in posts. Like the other stages it
// degrades instead of failing: with no posts it apologizes, and on a
// model error it returns the error text as the answer alongside the
// error itself.
func (s *AnswerSynthesizer) Answer(ctx context.Context, question string, posts []xapi.Post) (string, error) {
	if len(posts) == 0 {
		return NoEvidenceAnswer, nil
	}

	lines := make([]string, len(posts))
	for i, post := range posts {
		lines[i] = FormatPost(post)
	}
	prompt := fmt.Sprintf("Question: %s\n\nTweets:\n\n%s", question, strings.Join(lines, "\n\n"))

	answer, err := s.llm.Complete(ctx, llm.Request{
		Model: s.cfg.AnswerModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: answerSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxAnswerTokens,
	})
	if err != nil {
		s.logger.Warn("answer synthesis failed", "error", err)
		return fmt.Sprintf("I hit an error while writing the answer: %v", err), fmt.Errorf("answer synthesis: %w", err)
	}
	return answer, nil
}
