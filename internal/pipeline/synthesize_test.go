package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chirplab/chirp/internal/llm"
	"github.com/chirplab/chirp/internal/xapi"
)

type countingCompleter struct {
	calls   int
	lastReq llm.Request
	reply   string
	err     error
}

func (c *countingCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.calls++
	c.lastReq = req
	return c.reply, c.err
}

func TestAnswerWithoutPosts(t *testing.T) {
	completer := &countingCompleter{reply: "should never be used"}

	synth := NewSynthesizer(completer, testLLMConfig(), nil)
	answer, err := synth.Answer(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer != NoEvidenceAnswer {
		t.Errorf("expected the apology, got %q", answer)
	}
	if !strings.Contains(answer, "couldn't find any relevant tweets") {
		t.Errorf("apology text changed: %q", answer)
	}
	// No evidence means no model call at all.
	if completer.calls != 0 {
		t.Errorf("expected 0 completions, got %d", completer.calls)
	}
}

func TestAnswer(t *testing.T) {
	completer := &countingCompleter{reply: "Everyone credits @alice for the find."}
	posts := []xapi.Post{
		post("1", "alice", "Found a subtle bug in the scheduler under load"),
		post("2", "bob", "Confirmed the scheduler fix works on our cluster"),
	}

	synth := NewSynthesizer(completer, testLLMConfig(), nil)
	answer, err := synth.Answer(context.Background(), "what happened with the scheduler?", posts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Everyone credits @alice for the find." {
		t.Errorf("unexpected answer: %q", answer)
	}

	if completer.calls != 1 {
		t.Fatalf("expected 1 completion, got %d", completer.calls)
	}
	req := completer.lastReq
	if req.Model != "answer-model" {
		t.Errorf("expected answer-model, got %s", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("expected system plus user message, got %+v", req.Messages)
	}

	prompt := req.Messages[1].Content
	if !strings.Contains(prompt, "what happened with the scheduler?") {
		t.Errorf("expected the question in the prompt:\n%s", prompt)
	}
	for _, p := range posts {
		if !strings.Contains(prompt, FormatPost(p)) {
			t.Errorf("expected %q in the prompt:\n%s", FormatPost(p), prompt)
		}
	}
	// Posts are separated by a blank line in the context block.
	if !strings.Contains(prompt, FormatPost(posts[0])+"\n\n"+FormatPost(posts[1])) {
		t.Errorf("expected a blank line between posts:\n%s", prompt)
	}
}

func TestAnswerCompletionFailure(t *testing.T) {
	completer := &countingCompleter{err: fmt.Errorf("rate limited")}
	posts := []xapi.Post{post("1", "alice", "Found a subtle bug in the scheduler under load")}

	synth := NewSynthesizer(completer, testLLMConfig(), nil)
	answer, err := synth.Answer(context.Background(), "anything", posts)

	if err == nil {
		t.Error("expected the underlying error to be reported")
	}
	// The failure itself becomes the answer text.
	if !strings.Contains(answer, "rate limited") {
		t.Errorf("expected the error in the answer, got %q", answer)
	}
}
