package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chirplab/chirp/internal/config"
	"github.com/chirplab/chirp/internal/llm"
)

// A question maps to at most this many search queries.
const maxQueries = 3

const querySystemPrompt = `You turn a user's question into search queries for X (formerly Twitter).
Reply with a numbered list of 1 to 3 short queries, one per line, most promising first.
Keep each query under 8 words. Use plain keywords, no quotes or operators.
Reply with only the list.`

// QueryGenerator asks the LLM to turn a question into search queries.
// It always produces at least one query: when the call fails or the
// reply has no usable lines, the question itself is the query.
type QueryGenerator struct {
	llm    llm.Completer
	cfg    config.LLMConfig
	logger *slog.Logger
}

func NewQueryGenerator(completer llm.Completer, cfg config.LLMConfig, logger *slog.Logger) *QueryGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryGenerator{llm: completer, cfg: cfg, logger: logger}
}

// Queries returns 1 to 3 search queries for the question. A non-nil
// error reports a degraded result, not an empty one: the returned
// slice is usable either way.
func (g *QueryGenerator) Queries(ctx context.Context, question string) ([]string, error) {
	text, err := g.llm.Complete(ctx, llm.Request{
		Model: g.cfg.QueryModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: querySystemPrompt},
			{Role: llm.RoleUser, Content: question},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxQueryTokens,
	})
	if err != nil {
		g.logger.Warn("query generation failed, searching with the question itself", "error", err)
		return []string{question}, fmt.Errorf("query generation: %w", err)
	}

	queries := parseQueryList(text)
	if len(queries) == 0 {
		g.logger.Debug("no queries parsed from completion, searching with the question itself", "completion", text)
		return []string{question}, nil
	}
	return queries, nil
}

// Lines that look like "1. query" or "- query".
var queryLineRe = regexp.MustCompile(`^(?:\d+[.)]|[-*])\s*(.+)$`)

func parseQueryList(text string) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		m := queryLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		query := strings.TrimSpace(m[1])
		if query == "" {
			continue
		}
		queries = append(queries, query)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries
}
