package xapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Post is one search hit, reduced to the fields the rest of the program
// cares about.
type Post struct {
	ID        string
	Username  string
	CreatedAt time.Time
	Text      string
}

const (
	ProductLatest = "Latest"
	ProductTop    = "Top"
)

const DefaultSearchCount = 20

type SearchOptions struct {
	Count   int    // candidates to request, DefaultSearchCount if zero
	Product string // result tab, ProductLatest if empty
}

// Query id for the SearchTimeline GraphQL operation. Rotates with the
// web client from time to time.
const searchQueryID = "nK1dw4oV3k4w5TdtcAdSww"

// Feature switches the endpoint insists on receiving. Values mirror
// what the web client sends; the API rejects requests missing any.
var searchFeatures = map[string]bool{
	"articles_preview_enabled":                                                true,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"communities_web_enable_tweet_community_results_fetch":                    true,
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
	"longform_notetweets_consumption_enabled":                                 true,
	"longform_notetweets_inline_media_enabled":                                true,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"responsive_web_edit_tweet_api_enabled":                                   true,
	"responsive_web_enhance_cards_enabled":                                    false,
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                true,
	"rweb_tipjar_consumption_enabled":                                         true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_awards_web_tipping_enabled":                                        false,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"tweetypie_unmention_optimization_enabled":                                true,
	"verified_phone_label_enabled":                                            false,
	"view_counts_everywhere_api_enabled":                                      true,
}

// Cursor iterates over search hits. Entries are decoded one at a time
// as Next is called, so an abandoned cursor costs nothing. A cursor is
// not restartable.
type Cursor interface {
	Next() bool
	Post() Post
	Err() error
}

// Search runs one query against the search timeline and returns a
// Cursor over the hits in the order the service ranked them.
func (s *Session) Search(ctx context.Context, query string, opts SearchOptions) (Cursor, error) {
	if opts.Count <= 0 {
		opts.Count = DefaultSearchCount
	}
	if opts.Product == "" {
		opts.Product = ProductLatest
	}

	variables := map[string]any{
		"rawQuery":    query,
		"count":       opts.Count,
		"querySource": "typed_query",
		"product":     opts.Product,
	}
	varsJSON, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}
	featJSON, err := json.Marshal(searchFeatures)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	params := url.Values{}
	params.Set("variables", string(varsJSON))
	params.Set("features", string(featJSON))
	endpoint := fmt.Sprintf("%s/graphql/%s/SearchTimeline?%s", s.baseURL, searchQueryID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.bearer)
	req.Header.Set("X-Csrf-Token", s.csrf)
	req.Header.Set("X-Twitter-Auth-Type", "OAuth2Session")
	req.Header.Set("X-Twitter-Active-User", "yes")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search API error %d: %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var entries []jsoniter.RawMessage
	for _, ins := range sr.Data.SearchByRawQuery.SearchTimeline.Timeline.Instructions {
		if ins.Type != "TimelineAddEntries" {
			continue
		}
		entries = append(entries, ins.Entries...)
	}
	return &results{entries: entries}, nil
}

// The timeline payload nests tweets deep inside instruction entries.
// Entries stay raw until the cursor reaches them.
type searchResponse struct {
	Data struct {
		SearchByRawQuery struct {
			SearchTimeline struct {
				Timeline struct {
					Instructions []struct {
						Type    string                `json:"type"`
						Entries []jsoniter.RawMessage `json:"entries"`
					} `json:"instructions"`
				} `json:"timeline"`
			} `json:"search_timeline"`
		} `json:"search_by_raw_query"`
	} `json:"data"`
}

type timelineEntry struct {
	EntryID string `json:"entryId"`
	Content struct {
		ItemContent struct {
			TweetResults struct {
				Result tweetResult `json:"result"`
			} `json:"tweet_results"`
		} `json:"itemContent"`
	} `json:"content"`
}

type tweetResult struct {
	TypeName string      `json:"__typename"`
	RestID   string      `json:"rest_id"`
	Core     tweetCore   `json:"core"`
	Legacy   tweetLegacy `json:"legacy"`
	Tweet    *tweetInner `json:"tweet"` // set for visibility-limited results
}

type tweetInner struct {
	RestID string      `json:"rest_id"`
	Core   tweetCore   `json:"core"`
	Legacy tweetLegacy `json:"legacy"`
}

type tweetCore struct {
	UserResults struct {
		Result struct {
			Legacy struct {
				ScreenName string `json:"screen_name"`
			} `json:"legacy"`
		} `json:"result"`
	} `json:"user_results"`
}

type tweetLegacy struct {
	IDStr     string `json:"id_str"`
	FullText  string `json:"full_text"`
	CreatedAt string `json:"created_at"`
}

func (e *timelineEntry) post() (Post, bool) {
	res := e.Content.ItemContent.TweetResults.Result
	restID, core, legacy := res.RestID, res.Core, res.Legacy
	if res.Tweet != nil {
		restID, core, legacy = res.Tweet.RestID, res.Tweet.Core, res.Tweet.Legacy
	}

	id := restID
	if id == "" {
		id = legacy.IDStr
	}
	if id == "" || legacy.FullText == "" {
		return Post{}, false
	}

	// created_at looks like "Mon Jan 02 15:04:05 -0700 2006"
	created, err := time.Parse(time.RubyDate, legacy.CreatedAt)
	if err != nil {
		created = time.Time{}
	}

	return Post{
		ID:        id,
		Username:  core.UserResults.Result.Legacy.ScreenName,
		CreatedAt: created,
		Text:      legacy.FullText,
	}, true
}

type results struct {
	entries []jsoniter.RawMessage
	pos     int
	cur     Post
	err     error
}

func (r *results) Next() bool {
	if r.err != nil {
		return false
	}
	for r.pos < len(r.entries) {
		raw := r.entries[r.pos]
		r.pos++

		var entry timelineEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			r.err = fmt.Errorf("failed to decode timeline entry: %w", err)
			return false
		}
		// The timeline mixes tweets with cursors and promoted modules.
		if !strings.HasPrefix(entry.EntryID, "tweet-") {
			continue
		}
		post, ok := entry.post()
		if !ok {
			continue
		}
		r.cur = post
		return true
	}
	return false
}

func (r *results) Post() Post { return r.cur }

func (r *results) Err() error { return r.err }
