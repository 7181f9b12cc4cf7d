package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

const (
	// DefaultTwitterAPIURL is the base url of the Twitter v2 API
	DefaultTwitterAPIURL = "https://api.twitter.com"

	// DefaultTwitterRequestsPerMin is the request budget for recent search
	DefaultTwitterRequestsPerMin = 30

	searchRecentPath  = "/2/tweets/search/recent"
	tweetFields       = "author_id,referenced_tweets"
	retweetedRefType  = "retweeted"
	maxSearchResults  = "100"
	maxSearchPages    = 10
	twitterCronFields = cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow
)

// ReferencedTweet is a reference from a tweet to another tweet
type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Tweet is a tweet returned by the search API
type Tweet struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	AuthorID         string            `json:"author_id"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets"`
}

// IsRetweet returns true if the tweet is a plain retweet of another tweet
func (t *Tweet) IsRetweet() bool {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == retweetedRefType {
			return true
		}
	}
	return false
}

// NewTweetMessage converts a tweet into a faucet message
func NewTweetMessage(t *Tweet) *model.Message {
	return model.NewMessage(&model.MessageParams{
		Source: model.SourceTwitter,
		ID:     t.ID,
		UserID: t.AuthorID,
		Text:   t.Text,
		Extra:  map[string]interface{}{model.ExtraIsRetweet: t.IsRetweet()},
	})
}

type searchMeta struct {
	NewestID    string `json:"newest_id"`
	OldestID    string `json:"oldest_id"`
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

type searchResponse struct {
	Data []*Tweet   `json:"data"`
	Meta searchMeta `json:"meta"`
}

// SearchParams are the params of a recent search. SinceID takes precedence
// over StartTime.
type SearchParams struct {
	Query     string
	SinceID   string
	StartTime time.Time
}

// BuildSearchQuery returns a recent search query matching any of the keywords
func BuildSearchQuery(keywords []string) string {
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			terms = append(terms, kw)
		}
	}
	return strings.Join(terms, " OR ")
}

// NewTwitterSearchClient returns a client for the recent search API
// authenticated with the bearer token. Requests are paced to requestsPerMin.
func NewTwitterSearchClient(baseURL string, bearerToken string, requestsPerMin int) *TwitterSearchClient {
	if baseURL == "" {
		baseURL = DefaultTwitterAPIURL
	}
	if requestsPerMin <= 0 {
		requestsPerMin = DefaultTwitterRequestsPerMin
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken})
	return &TwitterSearchClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  oauth2.NewClient(context.Background(), ts),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMin)), 1),
	}
}

// TwitterSearchClient queries the Twitter v2 recent search endpoint
type TwitterSearchClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// SearchRecent returns tweets matching the params newest first, following
// next_token until every page is read, along with the newest id in the results
func (c *TwitterSearchClient) SearchRecent(ctx context.Context, params *SearchParams) ([]*Tweet, string, error) {
	var tweets []*Tweet
	newestID := ""
	nextToken := ""
	for page := 0; page < maxSearchPages; page++ {
		result, err := c.searchPage(ctx, params, nextToken)
		if err != nil {
			return nil, "", err
		}
		tweets = append(tweets, result.Data...)
		if page == 0 {
			newestID = result.Meta.NewestID
		}
		nextToken = result.Meta.NextToken
		if nextToken == "" {
			return tweets, newestID, nil
		}
	}
	log.Warningf("Twitter search stopped after %v pages, older results dropped", maxSearchPages)
	return tweets, newestID, nil
}

func (c *TwitterSearchClient) searchPage(ctx context.Context, params *SearchParams,
	nextToken string) (*searchResponse, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Error waiting for twitter rate limit")
	}

	values := url.Values{}
	values.Set("query", params.Query)
	values.Set("tweet.fields", tweetFields)
	values.Set("max_results", maxSearchResults)
	if params.SinceID != "" {
		values.Set("since_id", params.SinceID)
	} else if !params.StartTime.IsZero() {
		values.Set("start_time", params.StartTime.UTC().Format(time.RFC3339))
	}
	if nextToken != "" {
		values.Set("next_token", nextToken)
	}
	reqURL := fmt.Sprintf("%v%v?%v", c.baseURL, searchRecentPath, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Error creating twitter request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "Error searching twitter")
	}
	defer resp.Body.Close() // nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("Twitter search returned status %v", resp.StatusCode)
	}

	result := &searchResponse{}
	err = json.NewDecoder(resp.Body).Decode(result)
	if err != nil {
		return nil, errors.Wrap(err, "Error decoding twitter search response")
	}
	return result, nil
}

// TweetSearcher returns recent tweets matching a query
type TweetSearcher interface {
	SearchRecent(ctx context.Context, params *SearchParams) ([]*Tweet, string, error)
}

// NewTwitterListenerParams are the params to init a TwitterListener
type NewTwitterListenerParams struct {
	Searcher   TweetSearcher
	Keywords   []string
	CronConfig string
	Submitter  Submitter
	// StartTime bounds the first search when no tweet has been seen yet.
	// Defaults to the time the listener is created.
	StartTime time.Time
}

// NewTwitterListener is a convenience function to init a TwitterListener
func NewTwitterListener(params *NewTwitterListenerParams) (*TwitterListener, error) {
	parser := cron.NewParser(twitterCronFields)
	schedule, err := parser.Parse(params.CronConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid cron config: '%v'", params.CronConfig)
	}
	query := BuildSearchQuery(params.Keywords)
	if query == "" {
		return nil, errors.New("Twitter search keywords required")
	}
	startTime := params.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
	}
	return &TwitterListener{
		searcher:  params.Searcher,
		query:     query,
		schedule:  schedule,
		submitter: params.Submitter,
		startTime: startTime,
	}, nil
}

// TwitterListener polls recent search on a cron schedule and submits every new
// tweet. Twitter has no reaction channel so no reactor is attached.
type TwitterListener struct {
	searcher  TweetSearcher
	query     string
	schedule  cron.Schedule
	submitter Submitter
	startTime time.Time

	mutex   sync.Mutex
	sinceID string
}

// Listen polls on the schedule until ctx is done
func (t *TwitterListener) Listen(ctx context.Context) error {
	c := cron.New()
	c.Schedule(t.schedule, cron.FuncJob(func() {
		err := t.Poll(ctx)
		if err != nil {
			log.Errorf("Error polling twitter: err: %v", err)
		}
	}))
	c.Start()
	log.Infof("Polling twitter for '%v'", t.query)
	<-ctx.Done()
	c.Stop()
	return nil
}

// Poll runs a single search and submits the results oldest first
func (t *TwitterListener) Poll(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	tweets, newestID, err := t.searcher.SearchRecent(ctx, &SearchParams{
		Query:     t.query,
		SinceID:   t.sinceID,
		StartTime: t.startTime,
	})
	if err != nil {
		return err
	}
	log.Infof("Found %v new tweets", len(tweets))

	for i := len(tweets) - 1; i >= 0; i-- {
		if !t.submitter.Submit(ctx, NewTweetMessage(tweets[i]), nil) {
			log.V(2).Infof("Tweet %v not submitted", tweets[i].ID)
		}
	}
	if newestID == "" && len(tweets) > 0 {
		newestID = tweets[0].ID
	}
	if newestID != "" {
		t.sinceID = newestID
	}
	return nil
}

// SinceID returns the newest tweet id seen
func (t *TwitterListener) SinceID() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.sinceID
}
