package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/chirplab/chirp/internal/xapi"
)

const (
	// Candidates to request per search; only a few survive the filter.
	searchCandidates = 20
	// Accepted posts per query.
	maxPostsPerQuery = 3
	// Posts at or under this many runes are skipped.
	minPostRunes = 20

	repostPrefix = "RT @"
)

// SearchSession is the part of xapi.Session the retriever needs.
type SearchSession interface {
	Search(ctx context.Context, query string, opts xapi.SearchOptions) (xapi.Cursor, error)
}

// SearchRetriever pulls recent posts for one query and keeps the first
// few that pass the relevance filter. The candidate stream is abandoned
// as soon as enough posts are accepted.
type SearchRetriever struct {
	session SearchSession
	logger  *slog.Logger
}

func NewRetriever(session SearchSession, logger *slog.Logger) *SearchRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchRetriever{session: session, logger: logger}
}

// Posts returns at most maxPostsPerQuery posts for the query. On
// failure it returns the error with no posts; the caller decides
// whether that sinks the whole question (it should not).
func (r *SearchRetriever) Posts(ctx context.Context, query string) ([]xapi.Post, error) {
	cur, err := r.session.Search(ctx, query, xapi.SearchOptions{
		Count:   searchCandidates,
		Product: xapi.ProductLatest,
	})
	if err != nil {
		r.logger.Warn("search failed", "query", query, "error", err)
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var posts []xapi.Post
	for cur.Next() {
		post := cur.Post()
		if !relevant(post) {
			continue
		}
		posts = append(posts, post)
		if len(posts) == maxPostsPerQuery {
			return posts, nil
		}
	}
	if err := cur.Err(); err != nil {
		r.logger.Warn("search cursor failed", "query", query, "error", err)
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return posts, nil
}

// relevant keeps posts with enough body text to cite and drops
// classic-style reposts, which only echo another post.
func relevant(post xapi.Post) bool {
	if post.Text == "" {
		return false
	}
	if utf8.RuneCountInString(post.Text) <= minPostRunes {
		return false
	}
	if strings.HasPrefix(post.Text, repostPrefix) {
		return false
	}
	return true
}
