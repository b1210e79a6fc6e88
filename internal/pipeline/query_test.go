package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/chirplab/chirp/internal/config"
	"github.com/chirplab/chirp/internal/llm"
)

type completerFunc func(ctx context.Context, req llm.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		QueryModel:      "query-model",
		AnswerModel:     "answer-model",
		Temperature:     0.5,
		MaxQueryTokens:  100,
		MaxAnswerTokens: 200,
	}
}

func TestQueries(t *testing.T) {
	completer := completerFunc(func(ctx context.Context, req llm.Request) (string, error) {
		if req.Model != "query-model" {
			t.Errorf("expected query-model, got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "what is new in go" {
			t.Errorf("expected the question as the user message, got %+v", req.Messages)
		}
		return "1. golang release\n2. go new features\n3. golang roadmap", nil
	})

	gen := NewQueryGenerator(completer, testLLMConfig(), nil)
	queries, err := gen.Queries(context.Background(), "what is new in go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(queries) != 3 {
		t.Fatalf("expected 3 queries, got %d", len(queries))
	}
	if queries[0] != "golang release" {
		t.Errorf("expected first query stripped of its marker, got %q", queries[0])
	}
}

func TestQueriesFallbackOnError(t *testing.T) {
	completer := completerFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "", fmt.Errorf("service unavailable")
	})

	gen := NewQueryGenerator(completer, testLLMConfig(), nil)
	queries, err := gen.Queries(context.Background(), "what is new in go")

	if err == nil {
		t.Error("expected the underlying error to be reported")
	}
	if len(queries) != 1 || queries[0] != "what is new in go" {
		t.Errorf("expected the question as the only query, got %v", queries)
	}
}

func TestQueriesFallbackOnUnparseableReply(t *testing.T) {
	completer := completerFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "I could not come up with queries for that.", nil
	})

	gen := NewQueryGenerator(completer, testLLMConfig(), nil)
	queries, err := gen.Queries(context.Background(), "what is new in go")

	if err != nil {
		t.Errorf("an unparseable reply is not an error, got: %v", err)
	}
	if len(queries) != 1 || queries[0] != "what is new in go" {
		t.Errorf("expected the question as the only query, got %v", queries)
	}
}

func TestQueriesCappedAtThree(t *testing.T) {
	completer := completerFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "1. one\n2. two\n3. three\n4. four\n5. five", nil
	})

	gen := NewQueryGenerator(completer, testLLMConfig(), nil)
	queries, err := gen.Queries(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(queries) != 3 {
		t.Fatalf("expected 3 queries, got %d", len(queries))
	}
	if queries[2] != "three" {
		t.Errorf("expected the first three queries kept, got %v", queries)
	}
}

func TestParseQueryList(t *testing.T) {
	// Bulleted lists and chatty framing both show up in replies.
	queries := parseQueryList("Here are some queries:\n- golang generics\n* go 1.25 release\nHope that helps!")
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %v", queries)
	}
	if queries[0] != "golang generics" || queries[1] != "go 1.25 release" {
		t.Errorf("unexpected queries: %v", queries)
	}

	// A marker with nothing after it is not a query.
	queries = parseQueryList("1.  \n2) go testing tips")
	if len(queries) != 1 || queries[0] != "go testing tips" {
		t.Errorf("expected only the real query, got %v", queries)
	}

	if queries := parseQueryList(""); len(queries) != 0 {
		t.Errorf("expected no queries from empty text, got %v", queries)
	}
}
