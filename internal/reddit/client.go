package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/letieu/reddit-profiler/config"
)

type RedditClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	userAgent    string
	tokenURL     string
	apiBaseURL   string
}

// Comment is one of a user's comments as returned by the listing endpoint.
type Comment struct {
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	Body       string  `json:"body"`
}

type redditListingResponse struct {
	Data struct {
		Children []struct {
			Data Comment `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewClient builds an application-only OAuth client. Missing credentials
// fail with *config.ConfigError before any request is made.
func NewClient(cfg config.Config) (*RedditClient, error) {
	var missing []string
	if cfg.Reddit.ClientID == "" {
		missing = append(missing, "reddit.client_id")
	}
	if cfg.Reddit.ClientSecret == "" {
		missing = append(missing, "reddit.client_secret")
	}
	if cfg.Reddit.UserAgent == "" {
		missing = append(missing, "reddit.user_agent")
	}
	if len(missing) > 0 {
		return nil, &config.ConfigError{Missing: missing}
	}

	timeout := cfg.Reddit.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRedditTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Reddit.Transport == "tls" {
		transport, err := NewTLSTransport(timeout)
		if err != nil {
			return nil, fmt.Errorf("create tls transport: %w", err)
		}
		httpClient.Transport = transport
	}

	tokenURL := cfg.Reddit.TokenURL
	if tokenURL == "" {
		tokenURL = "https://www.reddit.com/api/v1/access_token"
	}
	apiBaseURL := cfg.Reddit.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = "https://oauth.reddit.com"
	}

	return &RedditClient{
		httpClient:   httpClient,
		clientID:     cfg.Reddit.ClientID,
		clientSecret: cfg.Reddit.ClientSecret,
		userAgent:    cfg.Reddit.UserAgent,
		tokenURL:     tokenURL,
		apiBaseURL:   strings.TrimRight(apiBaseURL, "/"),
	}, nil
}

// Token performs a client-credentials grant and returns the bearer token.
func (r *RedditClient) Token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body), Err: err}
	}
	if tok.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	return tok.AccessToken, nil
}

// UserComments fetches up to limit of the user's most recent comments in
// a single request. Reddit serves at most 100 items per listing call and
// no further pages are requested.
func (r *RedditClient) UserComments(ctx context.Context, token, username string, limit int) ([]Comment, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be a positive integer, got %d", limit)}
	}

	endpoint := fmt.Sprintf(
		"%s/user/%s/comments.json?limit=%d",
		r.apiBaseURL, url.PathEscape(username), limit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Username: username, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Username: username, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &FetchError{Username: username, Status: resp.StatusCode, Body: string(body)}
	}

	var listing redditListingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, &FetchError{Username: username, Status: resp.StatusCode, Err: fmt.Errorf("decode listing: %w", err)}
	}

	comments := make([]Comment, 0, len(listing.Data.Children))
	for _, c := range listing.Data.Children {
		if len(comments) == limit {
			break
		}
		comments = append(comments, c.Data)
	}

	return comments, nil
}
