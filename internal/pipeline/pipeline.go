package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chirplab/chirp/internal/xapi"
)

type Generator interface {
	Queries(ctx context.Context, question string) ([]string, error)
}

type Retriever interface {
	Posts(ctx context.Context, query string) ([]xapi.Post, error)
}

type Synthesizer interface {
	Answer(ctx context.Context, question string, posts []xapi.Post) (string, error)
}

// SearchError records which query a failed search belonged to.
type SearchError struct {
	Query string
	Err   error
}

// Timing holds wall-clock durations for each stage of one question.
type Timing struct {
	Generate   time.Duration
	Retrieve   time.Duration
	Synthesize time.Duration
	Total      time.Duration
}

// Result carries everything one question produced. Stage errors ride
// along instead of aborting the run: a Result always holds a usable
// Answer, however degraded.
type Result struct {
	Question string
	Queries  []string
	Posts    []xapi.Post
	Answer   string

	GenerateErr   error
	SearchErrs    []SearchError
	SynthesizeErr error

	Timing Timing
}

type Config struct {
	// Concurrent fans retrieval out across queries. Results are still
	// concatenated in query order, so deduplication is unaffected.
	Concurrent bool
}

// Pipeline drives one question through generate, retrieve, dedupe,
// and synthesize.
type Pipeline struct {
	cfg         Config
	generator   Generator
	retriever   Retriever
	synthesizer Synthesizer
	logger      *slog.Logger
}

func New(cfg Config, gen Generator, ret Retriever, synth Synthesizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:         cfg,
		generator:   gen,
		retriever:   ret,
		synthesizer: synth,
		logger:      logger,
	}
}

// Run answers one question. It never fails outright: stage errors are
// recorded on the Result and the remaining stages work with whatever
// the failed stage could deliver.
func (p *Pipeline) Run(ctx context.Context, question string) *Result {
	res := &Result{Question: question}
	start := time.Now()

	stageStart := time.Now()
	res.Queries, res.GenerateErr = p.generator.Queries(ctx, question)
	res.Timing.Generate = time.Since(stageStart)
	p.logger.Debug("queries generated", "count", len(res.Queries), "elapsed", res.Timing.Generate)

	stageStart = time.Now()
	var all []xapi.Post
	if p.cfg.Concurrent {
		all = p.retrieveConcurrent(ctx, res)
	} else {
		all = p.retrieveSequential(ctx, res)
	}
	res.Posts = Dedupe(all)
	res.Timing.Retrieve = time.Since(stageStart)
	p.logger.Debug("posts retrieved", "found", len(all), "unique", len(res.Posts), "elapsed", res.Timing.Retrieve)

	stageStart = time.Now()
	res.Answer, res.SynthesizeErr = p.synthesizer.Answer(ctx, question, res.Posts)
	res.Timing.Synthesize = time.Since(stageStart)
	p.logger.Debug("answer synthesized", "elapsed", res.Timing.Synthesize)

	res.Timing.Total = time.Since(start)
	return res
}

func (p *Pipeline) retrieveSequential(ctx context.Context, res *Result) []xapi.Post {
	var all []xapi.Post
	for _, query := range res.Queries {
		posts, err := p.retriever.Posts(ctx, query)
		if err != nil {
			res.SearchErrs = append(res.SearchErrs, SearchError{Query: query, Err: err})
			continue
		}
		all = append(all, posts...)
	}
	return all
}

// retrieveConcurrent searches all queries at once. Failures stay soft,
// so the group never cancels early; per-query results land in their
// query's slot to keep concatenation order stable.
func (p *Pipeline) retrieveConcurrent(ctx context.Context, res *Result) []xapi.Post {
	posts := make([][]xapi.Post, len(res.Queries))
	errs := make([]error, len(res.Queries))

	var g errgroup.Group
	for i, query := range res.Queries {
		i, query := i, query // per-iteration copies; required while go.mod targets go < 1.22
		g.Go(func() error {
			posts[i], errs[i] = p.retriever.Posts(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	var all []xapi.Post
	for i, query := range res.Queries {
		if errs[i] != nil {
			res.SearchErrs = append(res.SearchErrs, SearchError{Query: query, Err: errs[i]})
			continue
		}
		all = append(all, posts[i]...)
	}
	return all
}
